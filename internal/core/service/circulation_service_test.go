package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubItemRepo struct {
	items map[string]*domain.Item
}

func (r *stubItemRepo) Create(_ context.Context, i *domain.Item) error {
	clone := *i
	r.items[i.ID] = &clone
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id string) (*domain.Item, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	clone := *i
	return &clone, nil
}

func (r *stubItemRepo) Update(_ context.Context, i *domain.Item) error {
	if _, ok := r.items[i.ID]; !ok {
		return domain.ErrItemNotFound
	}
	clone := *i
	r.items[i.ID] = &clone
	return nil
}

func (r *stubItemRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubItemRepo) List(_ context.Context, _ ports.ListItemsFilter) ([]*domain.Item, int64, error) {
	var out []*domain.Item
	for _, i := range r.items {
		clone := *i
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubItemRepo) CountByStatus(_ context.Context, libraryID string) (map[domain.ItemStatus]int64, error) {
	out := make(map[domain.ItemStatus]int64)
	for _, i := range r.items {
		if libraryID != "" && i.LibraryID != libraryID {
			continue
		}
		out[i.Status]++
	}
	return out, nil
}

type stubLoanRepo struct {
	loans map[string]*domain.Loan
}

func (r *stubLoanRepo) FindByID(_ context.Context, id string) (*domain.Loan, error) {
	l, ok := r.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *stubLoanRepo) FindActiveByItemAndBorrower(_ context.Context, itemID, borrowerID string) (*domain.Loan, error) {
	for _, l := range r.loans {
		if l.ItemID == itemID && l.BorrowerID == borrowerID && l.Status == domain.LoanActive {
			clone := *l
			return &clone, nil
		}
	}
	return nil, domain.ErrLoanNotFound
}

func (r *stubLoanRepo) List(_ context.Context, f ports.ListLoansFilter) ([]*domain.Loan, int64, error) {
	var out []*domain.Loan
	for _, l := range r.loans {
		if f.BorrowerID != "" && l.BorrowerID != f.BorrowerID {
			continue
		}
		if f.LibraryID != "" && l.LibraryID != f.LibraryID {
			continue
		}
		if f.Status != "" && string(l.Status) != f.Status {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubLoanRepo) CountActive(_ context.Context, libraryID string) (int64, error) {
	var n int64
	for _, l := range r.loans {
		if l.Status == domain.LoanActive && (libraryID == "" || l.LibraryID == libraryID) {
			n++
		}
	}
	return n, nil
}

func (r *stubLoanRepo) CountOverdue(_ context.Context, libraryID string, now time.Time) (int64, error) {
	var n int64
	for _, l := range r.loans {
		if l.Status == domain.LoanActive && l.DueDate.Before(now) && (libraryID == "" || l.LibraryID == libraryID) {
			n++
		}
	}
	return n, nil
}

type stubReservationRepo struct {
	reservations map[string]*domain.Reservation
}

func (r *stubReservationRepo) FindByID(_ context.Context, id string) (*domain.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	clone := *res
	return &clone, nil
}

func (r *stubReservationRepo) FindOpenByItemAndBorrower(_ context.Context, itemID, borrowerID string) (*domain.Reservation, error) {
	for _, res := range r.reservations {
		if res.ItemID == itemID && res.BorrowerID == borrowerID && res.Status.Open() {
			clone := *res
			return &clone, nil
		}
	}
	return nil, domain.ErrReservationNotFound
}

func (r *stubReservationRepo) FindReadyForBorrower(_ context.Context, itemID, borrowerID string) (*domain.Reservation, error) {
	for _, res := range r.reservations {
		if res.ItemID == itemID && res.BorrowerID == borrowerID && res.Status == domain.ReservationReady {
			clone := *res
			return &clone, nil
		}
	}
	return nil, domain.ErrReservationNotFound
}

func (r *stubReservationRepo) NextInQueue(_ context.Context, itemID string) (*domain.Reservation, error) {
	var best *domain.Reservation
	for _, res := range r.reservations {
		if res.ItemID != itemID || res.Status != domain.ReservationActive {
			continue
		}
		if best == nil || res.QueuePosition < best.QueuePosition {
			best = res
		}
	}
	if best == nil {
		return nil, domain.ErrReservationNotFound
	}
	clone := *best
	return &clone, nil
}

func (r *stubReservationRepo) CountOpenByItem(_ context.Context, itemID string) (int64, error) {
	var n int64
	for _, res := range r.reservations {
		if res.ItemID == itemID && res.Status.Open() {
			n++
		}
	}
	return n, nil
}

func (r *stubReservationRepo) CountHeldForPickup(_ context.Context, itemID string) (int64, error) {
	var n int64
	for _, res := range r.reservations {
		if res.ItemID == itemID && res.Status == domain.ReservationReady {
			n++
		}
	}
	return n, nil
}

func (r *stubReservationRepo) Create(_ context.Context, res *domain.Reservation) error {
	clone := *res
	r.reservations[res.ID] = &clone
	return nil
}

func (r *stubReservationRepo) List(_ context.Context, f ports.ListReservationsFilter) ([]*domain.Reservation, int64, error) {
	var out []*domain.Reservation
	for _, res := range r.reservations {
		if f.LibraryID != "" && res.LibraryID != f.LibraryID {
			continue
		}
		if f.ItemID != "" && res.ItemID != f.ItemID {
			continue
		}
		if f.BorrowerID != "" && res.BorrowerID != f.BorrowerID {
			continue
		}
		if f.Status != "" && string(res.Status) != f.Status {
			continue
		}
		clone := *res
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

type stubMemberRepo struct {
	members map[string]*domain.Member
}

func (r *stubMemberRepo) Create(_ context.Context, m *domain.Member) error {
	clone := *m
	r.members[m.ID] = &clone
	return nil
}

func (r *stubMemberRepo) FindByID(_ context.Context, id string) (*domain.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubMemberRepo) FindByUser(_ context.Context, userID, libraryID string) (*domain.Member, error) {
	for _, m := range r.members {
		if m.UserID == userID && m.LibraryID == libraryID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (r *stubMemberRepo) Update(_ context.Context, m *domain.Member) error {
	if _, ok := r.members[m.ID]; !ok {
		return domain.ErrMemberNotFound
	}
	clone := *m
	r.members[m.ID] = &clone
	return nil
}

func (r *stubMemberRepo) List(_ context.Context, _ ports.ListMembersFilter) ([]*domain.Member, int64, error) {
	var out []*domain.Member
	for _, m := range r.members {
		clone := *m
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubMemberRepo) CountByTier(_ context.Context, tierID string) (int64, error) {
	var n int64
	for _, m := range r.members {
		if m.TierID == tierID {
			n++
		}
	}
	return n, nil
}

func (r *stubMemberRepo) SumOutstandingFees(_ context.Context, libraryID string) (float64, error) {
	var total float64
	for _, m := range r.members {
		if m.LibraryID == libraryID {
			total += m.OutstandingFees
		}
	}
	return total, nil
}

type stubTierRepo struct {
	tiers map[string]*domain.MembershipTier
}

func (r *stubTierRepo) Create(_ context.Context, t *domain.MembershipTier) error {
	clone := *t
	r.tiers[t.ID] = &clone
	return nil
}

func (r *stubTierRepo) FindByID(_ context.Context, id string) (*domain.MembershipTier, error) {
	t, ok := r.tiers[id]
	if !ok {
		return nil, domain.ErrTierNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTierRepo) Update(_ context.Context, t *domain.MembershipTier) error {
	if _, ok := r.tiers[t.ID]; !ok {
		return domain.ErrTierNotFound
	}
	clone := *t
	r.tiers[t.ID] = &clone
	return nil
}

func (r *stubTierRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tiers[id]; !ok {
		return domain.ErrTierNotFound
	}
	delete(r.tiers, id)
	return nil
}

func (r *stubTierRepo) ListByLibrary(_ context.Context, libraryID string) ([]*domain.MembershipTier, error) {
	var out []*domain.MembershipTier
	for _, t := range r.tiers {
		if t.LibraryID == libraryID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

type stubSettingsRepo struct {
	byLibrary map[string]*domain.LibrarySettings
	platform  *domain.PlatformSettings
}

func (r *stubSettingsRepo) FindByLibrary(_ context.Context, libraryID string) (*domain.LibrarySettings, error) {
	s, ok := r.byLibrary[libraryID]
	if !ok {
		return nil, domain.ErrSettingsNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubSettingsRepo) Save(_ context.Context, s *domain.LibrarySettings) error {
	clone := *s
	r.byLibrary[s.LibraryID] = &clone
	return nil
}

func (r *stubSettingsRepo) FindPlatform(_ context.Context) (*domain.PlatformSettings, error) {
	if r.platform == nil {
		return nil, domain.ErrSettingsNotFound
	}
	clone := *r.platform
	return &clone, nil
}

func (r *stubSettingsRepo) SavePlatform(_ context.Context, s *domain.PlatformSettings) error {
	clone := *s
	r.platform = &clone
	return nil
}

// stubCirculationRepo applies post-states to the in-memory stores, mirroring
// what the transactional Mongo implementation does, including the queue
// renumbering on cancellation and fulfilment.
type stubCirculationRepo struct {
	items        *stubItemRepo
	loans        *stubLoanRepo
	reservations *stubReservationRepo
	members      *stubMemberRepo
	applyErr     error // if set, every Apply fails with this error
}

func (r *stubCirculationRepo) ApplyCheckout(_ context.Context, st ports.CheckoutState) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	loan := *st.Loan
	r.loans.loans[loan.ID] = &loan
	item := *st.Item
	r.items.items[item.ID] = &item
	member := *st.Member
	r.members.members[member.ID] = &member
	if st.Fulfill != nil {
		f := *st.Fulfill
		r.reservations.reservations[f.ID] = &f
		r.renumber(f.ItemID, f.QueuePosition)
	}
	return nil
}

func (r *stubCirculationRepo) ApplyReturn(_ context.Context, st ports.ReturnState) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	loan := *st.Loan
	r.loans.loans[loan.ID] = &loan
	item := *st.Item
	r.items.items[item.ID] = &item
	member := *st.Member
	r.members.members[member.ID] = &member
	if st.Promote != nil {
		p := *st.Promote
		r.reservations.reservations[p.ID] = &p
	}
	return nil
}

func (r *stubCirculationRepo) ApplyCancel(_ context.Context, st ports.CancelState) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	res := *st.Reservation
	r.reservations.reservations[res.ID] = &res
	if st.Item != nil {
		item := *st.Item
		r.items.items[item.ID] = &item
	}
	if st.Member != nil {
		member := *st.Member
		r.members.members[member.ID] = &member
	}
	if st.Promote != nil {
		p := *st.Promote
		r.reservations.reservations[p.ID] = &p
	}
	r.renumber(res.ItemID, res.QueuePosition)
	return nil
}

func (r *stubCirculationRepo) renumber(itemID string, position int) {
	for _, res := range r.reservations.reservations {
		if res.ItemID == itemID && res.Status.Open() && res.QueuePosition > position {
			res.QueuePosition--
		}
	}
}

type stubDeduper struct {
	seen map[string]string
}

func (d *stubDeduper) Lookup(_ context.Context, key string) (string, bool, error) {
	loanID, ok := d.seen[key]
	return loanID, ok, nil
}

func (d *stubDeduper) Remember(_ context.Context, key, loanID string) error {
	d.seen[key] = loanID
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type circulationFixture struct {
	svc          *CirculationService
	items        *stubItemRepo
	loans        *stubLoanRepo
	reservations *stubReservationRepo
	members      *stubMemberRepo
	circ         *stubCirculationRepo
	dedup        *stubDeduper
}

func newCirculationFixture() *circulationFixture {
	items := &stubItemRepo{items: make(map[string]*domain.Item)}
	loans := &stubLoanRepo{loans: make(map[string]*domain.Loan)}
	reservations := &stubReservationRepo{reservations: make(map[string]*domain.Reservation)}
	members := &stubMemberRepo{members: make(map[string]*domain.Member)}
	tiers := &stubTierRepo{tiers: make(map[string]*domain.MembershipTier)}
	settings := &stubSettingsRepo{byLibrary: make(map[string]*domain.LibrarySettings)}
	circ := &stubCirculationRepo{items: items, loans: loans, reservations: reservations, members: members}
	dedup := &stubDeduper{seen: make(map[string]string)}

	items.items["item-1"] = &domain.Item{
		ID: "item-1", LibraryID: "lib-1", Name: "Wooden Train Set",
		Category: "vehicles", Condition: domain.ConditionGood,
		ReplacementValue: 45, Status: domain.ItemAvailable,
		Quantity: 1, AvailableQty: 1,
	}
	tiers.tiers["tier-1"] = &domain.MembershipTier{
		ID: "tier-1", LibraryID: "lib-1", Name: "Basic",
		BorrowingLimit: 2, MaxLoanDurationDays: 21,
	}
	members.members["mem-1"] = &domain.Member{
		ID: "mem-1", UserID: "user-1", LibraryID: "lib-1", TierID: "tier-1",
		Status: domain.MemberActive,
	}
	members.members["mem-2"] = &domain.Member{
		ID: "mem-2", UserID: "user-2", LibraryID: "lib-1", TierID: "tier-1",
		Status: domain.MemberActive,
	}
	settings.byLibrary["lib-1"] = &domain.LibrarySettings{
		LibraryID: "lib-1", DefaultLoanDays: 14, LateFeePerDay: 1.0,
		PickupWindowDays: 3, Currency: "USD",
	}

	svc := NewCirculationService(items, loans, reservations, members, tiers, settings, circ, nil, dedup, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }

	return &circulationFixture{
		svc: svc, items: items, loans: loans, reservations: reservations,
		members: members, circ: circ, dedup: dedup,
	}
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

func TestCheckout_Success(t *testing.T) {
	f := newCirculationFixture()

	loan, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if loan.Status != domain.LoanActive {
		t.Fatalf("expected active loan, got %s", loan.Status)
	}
	wantDue := fixedNow.AddDate(0, 0, 14) // library default, under the tier cap
	if !loan.DueDate.Equal(wantDue) {
		t.Fatalf("expected due date %v, got %v", wantDue, loan.DueDate)
	}

	item := f.items.items["item-1"]
	if item.AvailableQty != 0 {
		t.Fatalf("expected 0 available copies, got %d", item.AvailableQty)
	}
	if item.Status != domain.ItemLoaned {
		t.Fatalf("expected item loaned, got %s", item.Status)
	}

	member := f.members.members["mem-1"]
	if member.ActiveLoans != 1 || member.TotalLoans != 1 {
		t.Fatalf("expected counters 1/1, got %d/%d", member.ActiveLoans, member.TotalLoans)
	}
}

func TestCheckout_TierCapsDueDate(t *testing.T) {
	f := newCirculationFixture()
	f.items.items["item-1"].LendingPeriodDays = 30 // longer than the tier allows

	loan, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	wantDue := fixedNow.AddDate(0, 0, 21)
	if !loan.DueDate.Equal(wantDue) {
		t.Fatalf("expected due date capped at %v, got %v", wantDue, loan.DueDate)
	}
}

func TestCheckout_BorrowingLimitReached(t *testing.T) {
	f := newCirculationFixture()
	f.members.members["mem-1"].ActiveLoans = 2

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if !errors.Is(err, domain.ErrBorrowingLimitReached) {
		t.Fatalf("expected ErrBorrowingLimitReached, got %v", err)
	}
	if f.items.items["item-1"].AvailableQty != 1 {
		t.Fatalf("rejected checkout must not consume a copy")
	}
}

func TestCheckout_SuspendedMember(t *testing.T) {
	f := newCirculationFixture()
	f.members.members["mem-1"].Status = domain.MemberSuspended

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if !errors.Is(err, domain.ErrMemberSuspended) {
		t.Fatalf("expected ErrMemberSuspended, got %v", err)
	}
}

func TestCheckout_DuplicateOpenLoan(t *testing.T) {
	f := newCirculationFixture()
	f.loans.loans["loan-1"] = &domain.Loan{
		ID: "loan-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.LoanActive,
	}

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if !errors.Is(err, domain.ErrLoanAlreadyOpen) {
		t.Fatalf("expected ErrLoanAlreadyOpen, got %v", err)
	}
}

func TestCheckout_NoCopiesAvailable(t *testing.T) {
	f := newCirculationFixture()
	f.items.items["item-1"].AvailableQty = 0
	f.items.items["item-1"].Status = domain.ItemLoaned

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if !errors.Is(err, domain.ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}
}

func TestCheckout_MaintenanceBlocked(t *testing.T) {
	f := newCirculationFixture()
	f.items.items["item-1"].Status = domain.ItemMaintenance

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if !errors.Is(err, domain.ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}
}

func TestCheckout_FulfillsReadyHold(t *testing.T) {
	f := newCirculationFixture()
	f.items.items["item-1"].AvailableQty = 0
	f.items.items["item-1"].Status = domain.ItemReserved
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.ReservationReady, QueuePosition: 1,
	}

	loan, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if loan.Status != domain.LoanActive {
		t.Fatalf("expected active loan, got %s", loan.Status)
	}
	if got := f.reservations.reservations["res-1"].Status; got != domain.ReservationFulfilled {
		t.Fatalf("expected fulfilled hold, got %s", got)
	}
	// The held copy is consumed by the checkout, not the shelf stock.
	if f.items.items["item-1"].AvailableQty != 0 {
		t.Fatalf("available count must not change when a hold is fulfilled")
	}
	if f.items.items["item-1"].Status != domain.ItemLoaned {
		t.Fatalf("expected item loaned, got %s", f.items.items["item-1"].Status)
	}
}

func TestCheckout_ReadyHoldBeatsFreeCopy(t *testing.T) {
	f := newCirculationFixture()
	f.items.items["item-1"].Quantity = 2
	f.items.items["item-1"].AvailableQty = 1
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.ReservationReady, QueuePosition: 1,
	}

	loan, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if loan.Status != domain.LoanActive {
		t.Fatalf("expected active loan, got %s", loan.Status)
	}
	// The borrower's own hold is fulfilled, not left pinning a copy behind
	// their loan.
	if got := f.reservations.reservations["res-1"].Status; got != domain.ReservationFulfilled {
		t.Fatalf("expected fulfilled hold, got %s", got)
	}
	if got := f.items.items["item-1"].AvailableQty; got != 1 {
		t.Fatalf("free copy must stay on the shelf, got %d available", got)
	}
	if f.items.items["item-1"].Status != domain.ItemAvailable {
		t.Fatalf("expected item available, got %s", f.items.items["item-1"].Status)
	}
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	f := newCirculationFixture()

	first, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1", IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	second, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1", IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replay must return the original loan")
	}
	if len(f.loans.loans) != 1 {
		t.Fatalf("replay must not create a second loan, store has %d", len(f.loans.loans))
	}
	if f.members.members["mem-1"].ActiveLoans != 1 {
		t.Fatalf("replay must not bump counters")
	}
}

func TestCheckout_ApplyFailureLeavesStoreUntouched(t *testing.T) {
	f := newCirculationFixture()
	f.circ.applyErr = errors.New("transaction aborted")

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutInput{
		ItemID: "item-1", BorrowerID: "user-1",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(f.loans.loans) != 0 {
		t.Fatalf("failed apply must not persist a loan")
	}
	if f.items.items["item-1"].AvailableQty != 1 {
		t.Fatalf("failed apply must not consume a copy")
	}
}

// ---------------------------------------------------------------------------
// Return
// ---------------------------------------------------------------------------

func (f *circulationFixture) openLoan(id string, due time.Time) {
	f.loans.loans[id] = &domain.Loan{
		ID: id, ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		CheckoutDate: due.AddDate(0, 0, -14), DueDate: due, Status: domain.LoanActive,
	}
	f.items.items["item-1"].AvailableQty = 0
	f.items.items["item-1"].Status = domain.ItemLoaned
	f.members.members["mem-1"].ActiveLoans = 1
	f.members.members["mem-1"].TotalLoans = 1
}

func TestReturn_OnTime(t *testing.T) {
	f := newCirculationFixture()
	f.openLoan("loan-1", fixedNow.AddDate(0, 0, 3))

	loan, err := f.svc.Return(context.Background(), ports.ReturnInput{
		LoanID: "loan-1", Condition: domain.ConditionFair, Notes: "scuffed wheels",
	})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if loan.Status != domain.LoanReturned {
		t.Fatalf("expected returned, got %s", loan.Status)
	}
	if loan.LateFee != 0 {
		t.Fatalf("on-time return must not charge a fee, got %.2f", loan.LateFee)
	}

	item := f.items.items["item-1"]
	if item.AvailableQty != 1 || item.Status != domain.ItemAvailable {
		t.Fatalf("expected copy back on the shelf, got qty=%d status=%s", item.AvailableQty, item.Status)
	}
	if item.Condition != domain.ConditionFair {
		t.Fatalf("condition must be overwritten at return, got %s", item.Condition)
	}
	if f.members.members["mem-1"].ActiveLoans != 0 {
		t.Fatalf("active loan counter must decrement")
	}
}

func TestReturn_LateChargesPerDayFee(t *testing.T) {
	f := newCirculationFixture()
	// Due 2.5 days ago: a partial day counts as a full one, so 3 days late.
	f.openLoan("loan-1", fixedNow.Add(-60*time.Hour))

	loan, err := f.svc.Return(context.Background(), ports.ReturnInput{
		LoanID: "loan-1", Condition: domain.ConditionGood,
	})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if loan.LateFee != 3.0 {
		t.Fatalf("expected fee 3.00 (3 days x 1.00), got %.2f", loan.LateFee)
	}
	if got := f.members.members["mem-1"].OutstandingFees; got != 3.0 {
		t.Fatalf("expected member to owe 3.00, got %.2f", got)
	}
}

func TestReturn_PromotesQueueHead(t *testing.T) {
	f := newCirculationFixture()
	f.openLoan("loan-1", fixedNow.AddDate(0, 0, 3))
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-2", LibraryID: "lib-1",
		Status: domain.ReservationActive, QueuePosition: 1,
	}

	if _, err := f.svc.Return(context.Background(), ports.ReturnInput{
		LoanID: "loan-1", Condition: domain.ConditionGood,
	}); err != nil {
		t.Fatalf("return: %v", err)
	}

	res := f.reservations.reservations["res-1"]
	if res.Status != domain.ReservationReady {
		t.Fatalf("expected head of queue promoted to ready, got %s", res.Status)
	}
	if res.PickupDeadline == nil {
		t.Fatalf("promoted hold must carry a pickup deadline")
	}
	wantDeadline := fixedNow.AddDate(0, 0, 3)
	if !res.PickupDeadline.Equal(wantDeadline) {
		t.Fatalf("expected deadline %v, got %v", wantDeadline, res.PickupDeadline)
	}

	item := f.items.items["item-1"]
	if item.AvailableQty != 0 {
		t.Fatalf("freed copy must be held for the promoted borrower, not shelved")
	}
	if item.Status != domain.ItemReserved {
		t.Fatalf("expected item reserved, got %s", item.Status)
	}
}

func TestReturn_AlreadyReturned(t *testing.T) {
	f := newCirculationFixture()
	f.loans.loans["loan-1"] = &domain.Loan{
		ID: "loan-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.LoanReturned,
	}

	_, err := f.svc.Return(context.Background(), ports.ReturnInput{
		LoanID: "loan-1", Condition: domain.ConditionGood,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReturn_UnknownLoan(t *testing.T) {
	f := newCirculationFixture()

	_, err := f.svc.Return(context.Background(), ports.ReturnInput{
		LoanID: "missing", Condition: domain.ConditionGood,
	})
	if !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// MarkLost
// ---------------------------------------------------------------------------

func TestMarkLost_ChargesReplacementAndShrinksStock(t *testing.T) {
	f := newCirculationFixture()
	f.openLoan("loan-1", fixedNow.AddDate(0, 0, 3))

	loan, err := f.svc.MarkLost(context.Background(), "loan-1")
	if err != nil {
		t.Fatalf("mark lost: %v", err)
	}
	if loan.Status != domain.LoanLost {
		t.Fatalf("expected lost, got %s", loan.Status)
	}

	item := f.items.items["item-1"]
	if item.Quantity != 0 {
		t.Fatalf("lost copy must shrink stock, got quantity %d", item.Quantity)
	}
	if got := f.members.members["mem-1"].OutstandingFees; got != 45 {
		t.Fatalf("expected replacement value 45.00 charged, got %.2f", got)
	}
	if f.members.members["mem-1"].ActiveLoans != 0 {
		t.Fatalf("active loan counter must decrement")
	}
}

// ---------------------------------------------------------------------------
// Reserve / CancelReservation
// ---------------------------------------------------------------------------

func TestReserve_QueuePositionsAreFIFO(t *testing.T) {
	f := newCirculationFixture()

	first, err := f.svc.Reserve(context.Background(), "item-1", "user-1")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	second, err := f.svc.Reserve(context.Background(), "item-1", "user-2")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if first.QueuePosition != 1 || second.QueuePosition != 2 {
		t.Fatalf("expected positions 1 and 2, got %d and %d", first.QueuePosition, second.QueuePosition)
	}
	// Reserving never touches the copy on the shelf.
	if f.items.items["item-1"].AvailableQty != 1 || f.items.items["item-1"].Status != domain.ItemAvailable {
		t.Fatalf("reserve must not consume a copy or flip item status")
	}
}

func TestReserve_DuplicateRejected(t *testing.T) {
	f := newCirculationFixture()

	if _, err := f.svc.Reserve(context.Background(), "item-1", "user-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	_, err := f.svc.Reserve(context.Background(), "item-1", "user-1")
	if !errors.Is(err, domain.ErrDuplicateReservation) {
		t.Fatalf("expected ErrDuplicateReservation, got %v", err)
	}
}

func TestCancelReservation_RenumbersQueue(t *testing.T) {
	f := newCirculationFixture()
	for i, user := range []string{"user-1", "user-2", "user-3"} {
		f.reservations.reservations["res-"+user] = &domain.Reservation{
			ID: "res-" + user, ItemID: "item-1", BorrowerID: user, LibraryID: "lib-1",
			Status: domain.ReservationActive, QueuePosition: i + 1,
		}
	}

	if _, err := f.svc.CancelReservation(context.Background(), "res-user-1", ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if got := f.reservations.reservations["res-user-1"].Status; got != domain.ReservationCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}
	if got := f.reservations.reservations["res-user-2"].QueuePosition; got != 1 {
		t.Fatalf("expected user-2 moved to position 1, got %d", got)
	}
	if got := f.reservations.reservations["res-user-3"].QueuePosition; got != 2 {
		t.Fatalf("expected user-3 moved to position 2, got %d", got)
	}
}

func TestCancelReservation_ReadyHoldPassesCopyToNext(t *testing.T) {
	f := newCirculationFixture()
	f.items.items["item-1"].AvailableQty = 0
	f.items.items["item-1"].Status = domain.ItemReserved
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.ReservationReady, QueuePosition: 1,
	}
	f.reservations.reservations["res-2"] = &domain.Reservation{
		ID: "res-2", ItemID: "item-1", BorrowerID: "user-2", LibraryID: "lib-1",
		Status: domain.ReservationActive, QueuePosition: 2,
	}

	if _, err := f.svc.CancelReservation(context.Background(), "res-1", "user-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	next := f.reservations.reservations["res-2"]
	if next.Status != domain.ReservationReady {
		t.Fatalf("expected next hold promoted to ready, got %s", next.Status)
	}
	if next.QueuePosition != 1 {
		t.Fatalf("expected next hold renumbered to 1, got %d", next.QueuePosition)
	}
	if f.items.items["item-1"].AvailableQty != 0 {
		t.Fatalf("copy must pass to the next hold, not the shelf")
	}
}

func TestCancelReservation_ReadyHoldWithEmptyQueueShelvesCopy(t *testing.T) {
	f := newCirculationFixture()
	f.items.items["item-1"].AvailableQty = 0
	f.items.items["item-1"].Status = domain.ItemReserved
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.ReservationReady, QueuePosition: 1,
	}

	if _, err := f.svc.CancelReservation(context.Background(), "res-1", ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	item := f.items.items["item-1"]
	if item.AvailableQty != 1 || item.Status != domain.ItemAvailable {
		t.Fatalf("expected copy shelved, got qty=%d status=%s", item.AvailableQty, item.Status)
	}
}

func TestCancelReservation_OtherBorrowerForbidden(t *testing.T) {
	f := newCirculationFixture()
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.ReservationActive, QueuePosition: 1,
	}

	_, err := f.svc.CancelReservation(context.Background(), "res-1", "user-2")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if got := f.reservations.reservations["res-1"].Status; got != domain.ReservationActive {
		t.Fatalf("forbidden cancel must leave the hold open, got %s", got)
	}
}

func TestCancelReservation_AlreadyCancelled(t *testing.T) {
	f := newCirculationFixture()
	f.reservations.reservations["res-1"] = &domain.Reservation{
		ID: "res-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.ReservationCancelled, QueuePosition: 0,
	}

	_, err := f.svc.CancelReservation(context.Background(), "res-1", "")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
