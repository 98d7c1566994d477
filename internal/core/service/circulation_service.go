package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/api/metrics"
	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// CheckoutDeduper abstracts the idempotency store (Redis). Lookup returns the
// loan id recorded for a previously seen key.
type CheckoutDeduper interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Remember(ctx context.Context, key, loanID string) error
}

// CirculationService implements the lending state transitions. Every
// operation validates the relevant transition tables before the repository
// applies the multi-entity update atomically.
type CirculationService struct {
	items        ports.ItemRepository
	loans        ports.LoanRepository
	reservations ports.ReservationRepository
	members      ports.MemberRepository
	tiers        ports.TierRepository
	settings     ports.SettingsRepository
	circulation  ports.CirculationRepository
	notifier     ports.Notifier
	dedup        CheckoutDeduper
	now          func() time.Time
	log          zerolog.Logger
}

func NewCirculationService(
	items ports.ItemRepository,
	loans ports.LoanRepository,
	reservations ports.ReservationRepository,
	members ports.MemberRepository,
	tiers ports.TierRepository,
	settings ports.SettingsRepository,
	circulation ports.CirculationRepository,
	notifier ports.Notifier,
	dedup CheckoutDeduper,
	log zerolog.Logger,
) *CirculationService {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &CirculationService{
		items:        items,
		loans:        loans,
		reservations: reservations,
		members:      members,
		tiers:        tiers,
		settings:     settings,
		circulation:  circulation,
		notifier:     notifier,
		dedup:        dedup,
		now:          func() time.Time { return time.Now().UTC() },
		log:          log,
	}
}

// Checkout lends a copy of an item to a borrower. Guards: the member must be
// active and under the tier's borrowing limit, the borrower must not already
// hold an open loan on the item, and a copy must be free or held ready for
// this borrower. A ready hold is always fulfilled first, even when free
// copies remain on the shelf.
func (s *CirculationService) Checkout(ctx context.Context, input ports.CheckoutInput) (*domain.Loan, error) {
	if input.IdempotencyKey != "" && s.dedup != nil {
		if loanID, seen, err := s.dedup.Lookup(ctx, input.IdempotencyKey); err != nil {
			s.log.Warn().Err(err).Msg("checkout dedup lookup failed, processing anyway")
		} else if seen {
			s.log.Info().Str("idempotency_key", input.IdempotencyKey).Str("loan_id", loanID).Msg("idempotent replay")
			return s.loans.FindByID(ctx, loanID)
		}
	}

	item, err := s.items.FindByID(ctx, input.ItemID)
	if err != nil {
		metrics.CirculationErrorsTotal.WithLabelValues("item_not_found").Inc()
		return nil, err
	}
	member, err := s.members.FindByUser(ctx, input.BorrowerID, item.LibraryID)
	if err != nil {
		metrics.CirculationErrorsTotal.WithLabelValues("member_not_found").Inc()
		return nil, err
	}
	if member.Status != domain.MemberActive {
		metrics.CirculationErrorsTotal.WithLabelValues("member_suspended").Inc()
		return nil, domain.ErrMemberSuspended
	}

	tier, err := s.tiers.FindByID(ctx, member.TierID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if tier.BorrowingLimit > 0 && member.ActiveLoans >= tier.BorrowingLimit {
		metrics.CirculationErrorsTotal.WithLabelValues("borrowing_limit").Inc()
		return nil, domain.ErrBorrowingLimitReached
	}

	if _, err := s.loans.FindActiveByItemAndBorrower(ctx, item.ID, input.BorrowerID); err == nil {
		metrics.CirculationErrorsTotal.WithLabelValues("loan_already_open").Inc()
		return nil, domain.ErrLoanAlreadyOpen
	} else if !errors.Is(err, domain.ErrLoanNotFound) {
		return nil, err
	}

	if item.Status == domain.ItemMaintenance {
		metrics.CirculationErrorsTotal.WithLabelValues("item_unavailable").Inc()
		return nil, domain.ErrItemUnavailable
	}
	// A ready hold is consumed ahead of any free copy. Taking the free copy
	// instead would leave the borrower's own hold pinning a second copy they
	// can never check out.
	var fulfill *domain.Reservation
	hold, err := s.reservations.FindReadyForBorrower(ctx, item.ID, input.BorrowerID)
	switch {
	case err == nil:
		fulfill = hold
	case !errors.Is(err, domain.ErrReservationNotFound):
		return nil, fmt.Errorf("checkout: %w", err)
	case item.AvailableQty <= 0:
		metrics.CirculationErrorsTotal.WithLabelValues("item_unavailable").Inc()
		return nil, domain.ErrItemUnavailable
	}

	now := s.now()
	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = now.AddDate(0, 0, s.loanDays(ctx, item, tier))
	}

	loan := &domain.Loan{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		BorrowerID:   input.BorrowerID,
		LibraryID:    item.LibraryID,
		CheckoutDate: now,
		DueDate:      dueDate,
		Status:       domain.LoanActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	updatedItem := *item
	if fulfill != nil {
		f := *fulfill
		f.Status = domain.ReservationFulfilled
		f.UpdatedAt = now
		fulfill = &f
	} else {
		updatedItem.AvailableQty--
	}
	held, err := s.reservations.CountHeldForPickup(ctx, item.ID)
	if err != nil {
		held = 0
	}
	if fulfill != nil && held > 0 {
		held--
	}
	updatedItem.Status = updatedItem.DeriveStatus(int(held))
	updatedItem.UpdatedAt = now

	updatedMember := *member
	updatedMember.ActiveLoans++
	updatedMember.TotalLoans++
	updatedMember.UpdatedAt = now

	if err := s.circulation.ApplyCheckout(ctx, ports.CheckoutState{
		Loan:    loan,
		Item:    &updatedItem,
		Member:  &updatedMember,
		Fulfill: fulfill,
	}); err != nil {
		metrics.CirculationErrorsTotal.WithLabelValues("apply_failed").Inc()
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if input.IdempotencyKey != "" && s.dedup != nil {
		if err := s.dedup.Remember(ctx, input.IdempotencyKey, loan.ID); err != nil {
			s.log.Warn().Err(err).Msg("failed to record checkout idempotency key")
		}
	}

	metrics.LoansCreatedTotal.WithLabelValues(item.Category).Inc()
	s.notifier.Notify(domain.Notification{
		RecipientID: input.BorrowerID,
		LibraryID:   item.LibraryID,
		Severity:    domain.SeveritySuccess,
		Body:        fmt.Sprintf("%s checked out, due %s", item.Name, dueDate.Format("2006-01-02")),
		CreatedAt:   now,
	})
	s.log.Info().Str("loan_id", loan.ID).Str("item_id", item.ID).Str("borrower_id", input.BorrowerID).Msg("item checked out")
	return loan, nil
}

// Return closes an active loan. The item's condition is overwritten with the
// reported grade, a late fee accrues against the member when the return is
// past due, and a freed copy is offered to the head of the hold queue before
// going back on the shelf.
func (s *CirculationService) Return(ctx context.Context, input ports.ReturnInput) (*domain.Loan, error) {
	loan, err := s.loans.FindByID(ctx, input.LoanID)
	if err != nil {
		return nil, err
	}
	if !loan.Status.CanTransitionTo(domain.LoanReturned) {
		return nil, fmt.Errorf("return loan %s: %w (from %s)", loan.ID, domain.ErrInvalidTransition, loan.Status)
	}
	if !domain.ValidCondition(input.Condition) {
		return nil, fmt.Errorf("return loan %s: unknown condition %q", loan.ID, input.Condition)
	}

	item, err := s.items.FindByID(ctx, loan.ItemID)
	if err != nil {
		return nil, err
	}
	member, err := s.members.FindByUser(ctx, loan.BorrowerID, loan.LibraryID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updatedLoan := *loan
	updatedLoan.Status = domain.LoanReturned
	updatedLoan.ReturnDate = &now
	updatedLoan.Notes = input.Notes
	updatedLoan.UpdatedAt = now

	late := domain.OverdueDays(loan, now)
	if late > 0 {
		cfg := s.librarySettings(ctx, loan.LibraryID)
		updatedLoan.LateFee = float64(late) * cfg.LateFeePerDay
	}

	updatedMember := *member
	if updatedMember.ActiveLoans > 0 {
		updatedMember.ActiveLoans--
	}
	updatedMember.OutstandingFees += updatedLoan.LateFee
	updatedMember.UpdatedAt = now

	updatedItem := *item
	updatedItem.Condition = input.Condition
	updatedItem.UpdatedAt = now

	// The freed copy goes to the longest-waiting hold, if any.
	var promote *domain.Reservation
	if next, err := s.reservations.NextInQueue(ctx, item.ID); err == nil {
		cfg := s.librarySettings(ctx, loan.LibraryID)
		deadline := now.AddDate(0, 0, cfg.PickupWindowDays)
		p := *next
		p.Status = domain.ReservationReady
		p.PickupDeadline = &deadline
		p.UpdatedAt = now
		promote = &p
	} else if !errors.Is(err, domain.ErrReservationNotFound) {
		return nil, err
	}

	held, err := s.reservations.CountHeldForPickup(ctx, item.ID)
	if err != nil {
		held = 0
	}
	if promote != nil {
		held++
	} else {
		updatedItem.AvailableQty++
	}
	updatedItem.Status = updatedItem.DeriveStatus(int(held))

	if err := s.circulation.ApplyReturn(ctx, ports.ReturnState{
		Loan:    &updatedLoan,
		Item:    &updatedItem,
		Member:  &updatedMember,
		Promote: promote,
	}); err != nil {
		metrics.CirculationErrorsTotal.WithLabelValues("apply_failed").Inc()
		return nil, fmt.Errorf("return: %w", err)
	}

	wasLate := "false"
	if late > 0 {
		wasLate = "true"
	}
	metrics.ReturnsTotal.WithLabelValues(wasLate).Inc()

	if promote != nil {
		s.notifier.Notify(domain.Notification{
			RecipientID: promote.BorrowerID,
			LibraryID:   item.LibraryID,
			Severity:    domain.SeverityInfo,
			Body:        fmt.Sprintf("%s is ready for pickup", item.Name),
			CreatedAt:   now,
		})
	}
	if updatedLoan.LateFee > 0 {
		s.notifier.Notify(domain.Notification{
			RecipientID: loan.BorrowerID,
			LibraryID:   item.LibraryID,
			Severity:    domain.SeverityWarning,
			Body:        fmt.Sprintf("late fee of %.2f applied for %s", updatedLoan.LateFee, item.Name),
			CreatedAt:   now,
		})
	}
	s.log.Info().Str("loan_id", loan.ID).Float64("late_fee", updatedLoan.LateFee).Msg("item returned")
	return &updatedLoan, nil
}

// MarkLost closes the loan as lost, removes the copy from the item's stock,
// and charges the member the item's replacement value.
func (s *CirculationService) MarkLost(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.Status.CanTransitionTo(domain.LoanLost) {
		return nil, fmt.Errorf("mark lost %s: %w (from %s)", loan.ID, domain.ErrInvalidTransition, loan.Status)
	}

	item, err := s.items.FindByID(ctx, loan.ItemID)
	if err != nil {
		return nil, err
	}
	member, err := s.members.FindByUser(ctx, loan.BorrowerID, loan.LibraryID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updatedLoan := *loan
	updatedLoan.Status = domain.LoanLost
	updatedLoan.UpdatedAt = now

	updatedItem := *item
	if updatedItem.Quantity > 0 {
		updatedItem.Quantity--
	}
	updatedItem.UpdatedAt = now

	updatedMember := *member
	if updatedMember.ActiveLoans > 0 {
		updatedMember.ActiveLoans--
	}
	updatedMember.OutstandingFees += item.ReplacementValue
	updatedMember.UpdatedAt = now

	if err := s.circulation.ApplyReturn(ctx, ports.ReturnState{
		Loan:   &updatedLoan,
		Item:   &updatedItem,
		Member: &updatedMember,
	}); err != nil {
		return nil, fmt.Errorf("mark lost: %w", err)
	}

	s.notifier.Notify(domain.Notification{
		RecipientID: loan.BorrowerID,
		LibraryID:   item.LibraryID,
		Severity:    domain.SeverityError,
		Body:        fmt.Sprintf("%s reported lost, replacement value %.2f charged", item.Name, item.ReplacementValue),
		CreatedAt:   now,
	})
	s.log.Info().Str("loan_id", loan.ID).Msg("loan marked lost")
	return &updatedLoan, nil
}

// Reserve appends a hold to the item's FIFO queue. Reserving never consumes a
// copy and never changes the item's status; copies move only at return time.
func (s *CirculationService) Reserve(ctx context.Context, itemID, borrowerID string) (*domain.Reservation, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	member, err := s.members.FindByUser(ctx, borrowerID, item.LibraryID)
	if err != nil {
		return nil, err
	}
	if member.Status != domain.MemberActive {
		return nil, domain.ErrMemberSuspended
	}
	if _, err := s.reservations.FindOpenByItemAndBorrower(ctx, itemID, borrowerID); err == nil {
		return nil, domain.ErrDuplicateReservation
	} else if !errors.Is(err, domain.ErrReservationNotFound) {
		return nil, err
	}

	open, err := s.reservations.CountOpenByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := &domain.Reservation{
		ID:            uuid.NewString(),
		ItemID:        itemID,
		BorrowerID:    borrowerID,
		LibraryID:     item.LibraryID,
		ReservedAt:    now,
		Status:        domain.ReservationActive,
		QueuePosition: int(open) + 1,
		UpdatedAt:     now,
	}
	if err := s.reservations.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("reserve: %w", err)
	}

	metrics.ReservationsTotal.WithLabelValues("created").Inc()
	s.notifier.Notify(domain.Notification{
		RecipientID: borrowerID,
		LibraryID:   item.LibraryID,
		Severity:    domain.SeveritySuccess,
		Body:        fmt.Sprintf("hold placed on %s (position %d)", item.Name, r.QueuePosition),
		CreatedAt:   now,
	})
	s.log.Info().Str("reservation_id", r.ID).Str("item_id", itemID).Int("position", r.QueuePosition).Msg("item reserved")
	return r, nil
}

// CancelReservation cancels a hold and renumbers the queue behind it. A
// cancelled ready hold releases its held copy to the next hold in line, or
// back to the shelf when the queue is empty — never while the copy is out on
// loan through another path.
func (s *CirculationService) CancelReservation(ctx context.Context, reservationID, actorID string) (*domain.Reservation, error) {
	r, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if actorID != "" && r.BorrowerID != actorID {
		return nil, domain.ErrForbidden
	}
	if !r.Status.CanTransitionTo(domain.ReservationCancelled) {
		return nil, fmt.Errorf("cancel reservation %s: %w (from %s)", r.ID, domain.ErrInvalidTransition, r.Status)
	}

	now := s.now()
	cancelled := *r
	cancelled.Status = domain.ReservationCancelled
	cancelled.UpdatedAt = now

	st := ports.CancelState{Reservation: &cancelled}

	if r.Status == domain.ReservationReady {
		// The cancelled hold was sitting on a copy; pass it on.
		item, err := s.items.FindByID(ctx, r.ItemID)
		if err != nil {
			return nil, err
		}
		updatedItem := *item
		updatedItem.UpdatedAt = now

		if next, err := s.reservations.NextInQueue(ctx, r.ItemID); err == nil {
			cfg := s.librarySettings(ctx, r.LibraryID)
			deadline := now.AddDate(0, 0, cfg.PickupWindowDays)
			p := *next
			p.Status = domain.ReservationReady
			p.PickupDeadline = &deadline
			p.UpdatedAt = now
			st.Promote = &p
		} else if errors.Is(err, domain.ErrReservationNotFound) {
			updatedItem.AvailableQty++
		} else {
			return nil, err
		}

		held, err := s.reservations.CountHeldForPickup(ctx, r.ItemID)
		if err != nil {
			held = 0
		}
		if held > 0 && st.Promote == nil {
			held--
		}
		updatedItem.Status = updatedItem.DeriveStatus(int(held))
		st.Item = &updatedItem
	}

	if err := s.circulation.ApplyCancel(ctx, st); err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	metrics.ReservationsTotal.WithLabelValues("cancelled").Inc()
	s.log.Info().Str("reservation_id", r.ID).Msg("reservation cancelled")
	return &cancelled, nil
}

func (s *CirculationService) ListLoans(ctx context.Context, filter ports.ListLoansFilter) ([]*domain.Loan, int64, error) {
	return s.loans.List(ctx, filter)
}

func (s *CirculationService) ListReservations(ctx context.Context, filter ports.ListReservationsFilter) ([]*domain.Reservation, int64, error) {
	return s.reservations.List(ctx, filter)
}

// loanDays is the lending period for a checkout: the item's own period,
// falling back to the library default, capped by the member's tier.
func (s *CirculationService) loanDays(ctx context.Context, item *domain.Item, tier *domain.MembershipTier) int {
	days := item.LendingPeriodDays
	if days <= 0 {
		days = s.librarySettings(ctx, item.LibraryID).DefaultLoanDays
	}
	if tier.MaxLoanDurationDays > 0 && days > tier.MaxLoanDurationDays {
		days = tier.MaxLoanDurationDays
	}
	return days
}

func (s *CirculationService) librarySettings(ctx context.Context, libraryID string) *domain.LibrarySettings {
	cfg, err := s.settings.FindByLibrary(ctx, libraryID)
	if err != nil {
		return domain.DefaultLibrarySettings(libraryID, s.now())
	}
	return cfg
}
