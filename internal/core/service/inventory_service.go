package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// ImageStore abstracts the object storage backend holding item images.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// InventoryService implements host inventory management.
type InventoryService struct {
	items        ports.ItemRepository
	reservations ports.ReservationRepository
	images       ImageStore
	notifier     ports.Notifier
	log          zerolog.Logger
}

func NewInventoryService(items ports.ItemRepository, reservations ports.ReservationRepository, images ImageStore, notifier ports.Notifier, log zerolog.Logger) *InventoryService {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &InventoryService{items: items, reservations: reservations, images: images, notifier: notifier, log: log}
}

// AddItem creates an inventory record. All copies start available.
func (s *InventoryService) AddItem(ctx context.Context, libraryID string, input ports.ItemInput) (*domain.Item, error) {
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	if !domain.ValidCondition(input.Condition) {
		input.Condition = domain.ConditionGood
	}

	now := time.Now().UTC()
	item := &domain.Item{
		ID:                uuid.NewString(),
		LibraryID:         libraryID,
		Name:              input.Name,
		Description:       input.Description,
		Category:          input.Category,
		AgeRecommendation: input.AgeRecommendation,
		Condition:         input.Condition,
		ReplacementValue:  input.ReplacementValue,
		LendingPeriodDays: input.LendingPeriodDays,
		Barcode:           input.Barcode,
		Status:            domain.ItemAvailable,
		Quantity:          input.Quantity,
		AvailableQty:      input.Quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	s.log.Info().Str("item_id", item.ID).Str("library_id", libraryID).Msg("item added to inventory")
	return item, nil
}

// UpdateItem merges host-editable fields. Circulation-owned fields (status,
// available quantity) are not writable here; quantity changes adjust the
// available counter by the same delta, floored at zero.
func (s *InventoryService) UpdateItem(ctx context.Context, libraryID, itemID string, input ports.ItemInput) (*domain.Item, error) {
	item, err := s.ownedItem(ctx, libraryID, itemID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		item.Name = input.Name
	}
	if input.Description != "" {
		item.Description = input.Description
	}
	if input.Category != "" {
		item.Category = input.Category
	}
	if input.AgeRecommendation != "" {
		item.AgeRecommendation = input.AgeRecommendation
	}
	if domain.ValidCondition(input.Condition) {
		item.Condition = input.Condition
	}
	if input.ReplacementValue > 0 {
		item.ReplacementValue = input.ReplacementValue
	}
	if input.LendingPeriodDays > 0 {
		item.LendingPeriodDays = input.LendingPeriodDays
	}
	if input.Barcode != "" {
		item.Barcode = input.Barcode
	}
	if input.Quantity > 0 && input.Quantity != item.Quantity {
		delta := input.Quantity - item.Quantity
		item.Quantity = input.Quantity
		item.AvailableQty += delta
		if item.AvailableQty < 0 {
			item.AvailableQty = 0
		}
		item.Status = item.DeriveStatus(s.heldCount(ctx, item.ID))
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

// SetMaintenance moves an item in or out of maintenance.
func (s *InventoryService) SetMaintenance(ctx context.Context, libraryID, itemID string, maintenance bool) (*domain.Item, error) {
	item, err := s.ownedItem(ctx, libraryID, itemID)
	if err != nil {
		return nil, err
	}

	next := domain.ItemMaintenance
	if !maintenance {
		// DeriveStatus keeps maintenance sticky, so derive from a copy with
		// the flag already cleared.
		probe := *item
		probe.Status = domain.ItemAvailable
		next = probe.DeriveStatus(s.heldCount(ctx, item.ID))
	}
	if item.Status == next {
		return item, nil
	}
	if !item.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("item %s: %w (from %s to %s)", item.ID, domain.ErrInvalidTransition, item.Status, next)
	}
	item.Status = next
	item.UpdatedAt = time.Now().UTC()

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	s.log.Info().Str("item_id", item.ID).Str("status", string(next)).Msg("item maintenance flag changed")
	return item, nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, libraryID, itemID string) error {
	item, err := s.ownedItem(ctx, libraryID, itemID)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, item.ID); err != nil {
		return err
	}
	for _, key := range item.ImageKeys {
		if s.images != nil {
			if err := s.images.Delete(ctx, key); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("failed to delete item image")
			}
		}
	}
	s.log.Info().Str("item_id", item.ID).Msg("item deleted from inventory")
	return nil
}

func (s *InventoryService) GetItem(ctx context.Context, itemID string) (*domain.Item, error) {
	return s.items.FindByID(ctx, itemID)
}

func (s *InventoryService) ListItems(ctx context.Context, filter ports.ListItemsFilter) (*ports.ListItemsResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ports.ListItemsResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// AttachImage stores the image in object storage under a per-item key and
// records the key on the item.
func (s *InventoryService) AttachImage(ctx context.Context, libraryID, itemID, filename string, r io.Reader, size int64, contentType string) (*domain.Item, error) {
	item, err := s.ownedItem(ctx, libraryID, itemID)
	if err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, fmt.Errorf("attach image: object storage not configured")
	}

	key := fmt.Sprintf("items/%s/%s%s", item.ID, uuid.NewString(), path.Ext(filename))
	if err := s.images.Put(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("attach image: %w", err)
	}

	item.ImageKeys = append(item.ImageKeys, key)
	item.UpdatedAt = time.Now().UTC()
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ItemImage opens the stored image at the given position in the item's image
// list and reports its content type from the key's extension.
func (s *InventoryService) ItemImage(ctx context.Context, itemID string, index int) (io.ReadCloser, string, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, "", err
	}
	if s.images == nil {
		return nil, "", fmt.Errorf("item image: object storage not configured")
	}
	if index < 0 || index >= len(item.ImageKeys) {
		return nil, "", fmt.Errorf("item %s has no image %d: %w", itemID, index, domain.ErrItemNotFound)
	}
	key := item.ImageKeys[index]
	rc, err := s.images.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("item image: %w", err)
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rc, contentType, nil
}

// heldCount is the number of copies sitting on ready holds, used to keep the
// derived status coherent when inventory edits change the counters.
func (s *InventoryService) heldCount(ctx context.Context, itemID string) int {
	n, err := s.reservations.CountHeldForPickup(ctx, itemID)
	if err != nil {
		return 0
	}
	return int(n)
}

// ownedItem loads the item and enforces library ownership.
func (s *InventoryService) ownedItem(ctx context.Context, libraryID, itemID string) (*domain.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if libraryID != "" && item.LibraryID != libraryID {
		return nil, domain.ErrForbidden
	}
	return item, nil
}
