package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

type stubImageStore struct {
	objects map[string][]byte
	putErr  error
}

func (s *stubImageStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *stubImageStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubImageStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type inventoryFixture struct {
	svc          *InventoryService
	items        *stubItemRepo
	reservations *stubReservationRepo
	images       *stubImageStore
}

func newInventoryFixture() (*InventoryService, *stubItemRepo, *stubImageStore) {
	f := newInventoryFixtureFull()
	return f.svc, f.items, f.images
}

func newInventoryFixtureFull() *inventoryFixture {
	items := &stubItemRepo{items: make(map[string]*domain.Item)}
	reservations := &stubReservationRepo{reservations: make(map[string]*domain.Reservation)}
	images := &stubImageStore{objects: make(map[string][]byte)}
	svc := NewInventoryService(items, reservations, images, nil, zerolog.Nop())
	return &inventoryFixture{svc: svc, items: items, reservations: reservations, images: images}
}

func TestAddItem(t *testing.T) {
	svc, _, _ := newInventoryFixture()

	item, err := svc.AddItem(context.Background(), "lib-1", ports.ItemInput{
		Name: "Wooden Train Set", Category: "vehicles", Quantity: 3,
		Condition: domain.ConditionExcellent, ReplacementValue: 45,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Status != domain.ItemAvailable {
		t.Fatalf("new item must be available, got %s", item.Status)
	}
	if item.AvailableQty != 3 {
		t.Fatalf("all copies must start available, got %d", item.AvailableQty)
	}
}

func TestAddItem_Defaults(t *testing.T) {
	svc, _, _ := newInventoryFixture()

	item, err := svc.AddItem(context.Background(), "lib-1", ports.ItemInput{Name: "Duplo Farm"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Quantity != 1 {
		t.Fatalf("quantity must default to 1, got %d", item.Quantity)
	}
	if item.Condition != domain.ConditionGood {
		t.Fatalf("condition must default to good, got %s", item.Condition)
	}
}

func TestUpdateItem_QuantityAdjustsAvailable(t *testing.T) {
	svc, items, _ := newInventoryFixture()
	items.items["item-1"] = &domain.Item{
		ID: "item-1", LibraryID: "lib-1", Name: "Catan Junior",
		Status: domain.ItemLoaned, Quantity: 2, AvailableQty: 0,
	}

	// Adding a copy while two are out makes exactly one available.
	item, err := svc.UpdateItem(context.Background(), "lib-1", "item-1", ports.ItemInput{Quantity: 3})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if item.AvailableQty != 1 {
		t.Fatalf("expected 1 available, got %d", item.AvailableQty)
	}
	if item.Status != domain.ItemAvailable {
		t.Fatalf("expected available, got %s", item.Status)
	}
}

func TestUpdateItem_OtherLibraryForbidden(t *testing.T) {
	svc, items, _ := newInventoryFixture()
	items.items["item-1"] = &domain.Item{ID: "item-1", LibraryID: "lib-1", Status: domain.ItemAvailable}

	_, err := svc.UpdateItem(context.Background(), "lib-other", "item-1", ports.ItemInput{Name: "Hijack"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSetMaintenance(t *testing.T) {
	svc, items, _ := newInventoryFixture()
	items.items["item-1"] = &domain.Item{
		ID: "item-1", LibraryID: "lib-1", Status: domain.ItemAvailable,
		Quantity: 1, AvailableQty: 1,
	}

	item, err := svc.SetMaintenance(context.Background(), "lib-1", "item-1", true)
	if err != nil {
		t.Fatalf("set maintenance: %v", err)
	}
	if item.Status != domain.ItemMaintenance {
		t.Fatalf("expected maintenance, got %s", item.Status)
	}

	item, err = svc.SetMaintenance(context.Background(), "lib-1", "item-1", false)
	if err != nil {
		t.Fatalf("clear maintenance: %v", err)
	}
	if item.Status != domain.ItemAvailable {
		t.Fatalf("expected available, got %s", item.Status)
	}
}

func TestSetMaintenance_LoanedItemBlocked(t *testing.T) {
	svc, items, _ := newInventoryFixture()
	items.items["item-1"] = &domain.Item{
		ID: "item-1", LibraryID: "lib-1", Status: domain.ItemLoaned,
		Quantity: 1, AvailableQty: 0,
	}

	_, err := svc.SetMaintenance(context.Background(), "lib-1", "item-1", true)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSetMaintenance_ExitKeepsHeldCopiesReserved(t *testing.T) {
	f := newInventoryFixtureFull()
	f.items.items["item-1"] = &domain.Item{
		ID: "item-1", LibraryID: "lib-1", Status: domain.ItemMaintenance,
		Quantity: 1, AvailableQty: 0,
	}
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.ReservationReady, QueuePosition: 1,
	}

	item, err := f.svc.SetMaintenance(context.Background(), "lib-1", "item-1", false)
	if err != nil {
		t.Fatalf("clear maintenance: %v", err)
	}
	if item.Status != domain.ItemReserved {
		t.Fatalf("held copy must keep the item reserved, got %s", item.Status)
	}
}

func TestUpdateItem_QuantityRespectsHeldCopies(t *testing.T) {
	f := newInventoryFixtureFull()
	f.items.items["item-1"] = &domain.Item{
		ID: "item-1", LibraryID: "lib-1", Name: "Marble Run",
		Status: domain.ItemAvailable, Quantity: 2, AvailableQty: 1,
	}
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.ReservationReady, QueuePosition: 1,
	}

	// Removing the shelf copy leaves only the one sitting on a ready hold.
	item, err := f.svc.UpdateItem(context.Background(), "lib-1", "item-1", ports.ItemInput{Quantity: 1})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if item.AvailableQty != 0 {
		t.Fatalf("expected 0 available, got %d", item.AvailableQty)
	}
	if item.Status != domain.ItemReserved {
		t.Fatalf("expected reserved, got %s", item.Status)
	}
}

func TestDeleteItem_RemovesImages(t *testing.T) {
	svc, items, images := newInventoryFixture()
	images.objects["items/item-1/a.png"] = []byte("png")
	items.items["item-1"] = &domain.Item{
		ID: "item-1", LibraryID: "lib-1", Status: domain.ItemAvailable,
		ImageKeys: []string{"items/item-1/a.png"},
	}

	if err := svc.DeleteItem(context.Background(), "lib-1", "item-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := items.items["item-1"]; ok {
		t.Fatalf("item not deleted")
	}
	if len(images.objects) != 0 {
		t.Fatalf("orphaned images left behind: %v", images.objects)
	}
}

func TestAttachImage(t *testing.T) {
	svc, items, images := newInventoryFixture()
	items.items["item-1"] = &domain.Item{ID: "item-1", LibraryID: "lib-1", Status: domain.ItemAvailable}

	item, err := svc.AttachImage(context.Background(), "lib-1", "item-1", "photo.jpg",
		strings.NewReader("jpegdata"), 8, "image/jpeg")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(item.ImageKeys) != 1 {
		t.Fatalf("expected one image key, got %v", item.ImageKeys)
	}
	if !strings.HasPrefix(item.ImageKeys[0], "items/item-1/") || !strings.HasSuffix(item.ImageKeys[0], ".jpg") {
		t.Fatalf("unexpected key format %q", item.ImageKeys[0])
	}
	if _, ok := images.objects[item.ImageKeys[0]]; !ok {
		t.Fatalf("object not stored")
	}
}

func TestAttachImage_NoStoreConfigured(t *testing.T) {
	items := &stubItemRepo{items: map[string]*domain.Item{
		"item-1": {ID: "item-1", LibraryID: "lib-1", Status: domain.ItemAvailable},
	}}
	reservations := &stubReservationRepo{reservations: make(map[string]*domain.Reservation)}
	svc := NewInventoryService(items, reservations, nil, nil, zerolog.Nop())

	_, err := svc.AttachImage(context.Background(), "lib-1", "item-1", "photo.jpg",
		strings.NewReader("x"), 1, "image/jpeg")
	if err == nil {
		t.Fatalf("expected error when object storage is not configured")
	}
}

func TestItemImage(t *testing.T) {
	svc, items, images := newInventoryFixture()
	images.objects["items/item-1/a.jpg"] = []byte("jpegdata")
	items.items["item-1"] = &domain.Item{
		ID: "item-1", LibraryID: "lib-1", Status: domain.ItemAvailable,
		ImageKeys: []string{"items/item-1/a.jpg"},
	}

	rc, contentType, err := svc.ItemImage(context.Background(), "item-1", 0)
	if err != nil {
		t.Fatalf("item image: %v", err)
	}
	defer rc.Close()
	if contentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", contentType)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "jpegdata" {
		t.Fatalf("unexpected object bytes %q", data)
	}
}

func TestItemImage_UnknownIndex(t *testing.T) {
	svc, items, _ := newInventoryFixture()
	items.items["item-1"] = &domain.Item{ID: "item-1", LibraryID: "lib-1", Status: domain.ItemAvailable}

	_, _, err := svc.ItemImage(context.Background(), "item-1", 0)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestListItems_Pagination(t *testing.T) {
	svc, items, _ := newInventoryFixture()
	for _, id := range []string{"a", "b", "c"} {
		items.items[id] = &domain.Item{ID: id, LibraryID: "lib-1", Status: domain.ItemAvailable}
	}

	res, err := svc.ListItems(context.Background(), ports.ListItemsFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Page != 1 {
		t.Fatalf("page must default to 1, got %d", res.Page)
	}
	if res.TotalPages != 2 {
		t.Fatalf("expected 2 pages of 2 for 3 items, got %d", res.TotalPages)
	}
}
