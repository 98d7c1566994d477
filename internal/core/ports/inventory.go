package ports

import (
	"context"
	"io"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

// ListItemsFilter carries all query parameters for browsing inventory.
// LibraryID is enforced by the service layer for host-scoped calls.
type ListItemsFilter struct {
	LibraryID string
	Category  string
	Status    string
	Search    string // partial match on name or barcode
	Page      int    // 1-based
	Limit     int    // capped at 100 by the service
}

// ItemRepository defines persistence operations for inventory.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	// Update replaces the stored item. Returns domain.ErrItemNotFound when
	// the id does not exist.
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListItemsFilter) ([]*domain.Item, int64, error)
	CountByStatus(ctx context.Context, libraryID string) (map[domain.ItemStatus]int64, error)
}

// ItemInput carries the host-editable fields of an item.
type ItemInput struct {
	Name              string
	Description       string
	Category          string
	AgeRecommendation string
	Condition         domain.ItemCondition
	ReplacementValue  float64
	LendingPeriodDays int
	Barcode           string
	Quantity          int
}

// ListItemsResult is returned by List.
type ListItemsResult struct {
	Items      []*domain.Item
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// InventoryService defines use-case operations for inventory management.
type InventoryService interface {
	AddItem(ctx context.Context, libraryID string, input ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, libraryID, itemID string, input ItemInput) (*domain.Item, error)
	// SetMaintenance moves an item in or out of maintenance, subject to the
	// item status transition table.
	SetMaintenance(ctx context.Context, libraryID, itemID string, maintenance bool) (*domain.Item, error)
	DeleteItem(ctx context.Context, libraryID, itemID string) error
	GetItem(ctx context.Context, itemID string) (*domain.Item, error)
	ListItems(ctx context.Context, filter ListItemsFilter) (*ListItemsResult, error)
	// AttachImage stores the image bytes in object storage and records the
	// key on the item.
	AttachImage(ctx context.Context, libraryID, itemID, filename string, r io.Reader, size int64, contentType string) (*domain.Item, error)
	// ItemImage streams the stored image at the given position in the item's
	// image list. The caller closes the reader.
	ItemImage(ctx context.Context, itemID string, index int) (io.ReadCloser, string, error)
}
