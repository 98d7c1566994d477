package ports

import (
	"context"
	"time"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

// LoanRepository defines persistence operations for loans.
type LoanRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Loan, error)
	// FindActiveByItemAndBorrower returns the open loan for the pair, or
	// domain.ErrLoanNotFound.
	FindActiveByItemAndBorrower(ctx context.Context, itemID, borrowerID string) (*domain.Loan, error)
	List(ctx context.Context, filter ListLoansFilter) ([]*domain.Loan, int64, error)
	CountActive(ctx context.Context, libraryID string) (int64, error)
	// CountOverdue counts stored-active loans whose due date is before now.
	CountOverdue(ctx context.Context, libraryID string, now time.Time) (int64, error)
}

// ListLoansFilter carries query parameters for listing loans.
type ListLoansFilter struct {
	LibraryID  string
	BorrowerID string
	Status     string
	Page       int
	Limit      int
}

// ReservationRepository defines persistence operations for holds.
type ReservationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	// FindOpenByItemAndBorrower returns the borrower's active or ready hold
	// on the item, or domain.ErrReservationNotFound.
	FindOpenByItemAndBorrower(ctx context.Context, itemID, borrowerID string) (*domain.Reservation, error)
	// FindReadyForBorrower returns the borrower's ready hold on the item,
	// or domain.ErrReservationNotFound.
	FindReadyForBorrower(ctx context.Context, itemID, borrowerID string) (*domain.Reservation, error)
	// NextInQueue returns the open active hold with the lowest queue
	// position, or domain.ErrReservationNotFound when the queue is empty.
	NextInQueue(ctx context.Context, itemID string) (*domain.Reservation, error)
	CountOpenByItem(ctx context.Context, itemID string) (int64, error)
	CountHeldForPickup(ctx context.Context, itemID string) (int64, error)
	Create(ctx context.Context, r *domain.Reservation) error
	List(ctx context.Context, filter ListReservationsFilter) ([]*domain.Reservation, int64, error)
}

// ListReservationsFilter carries query parameters for listing holds.
type ListReservationsFilter struct {
	LibraryID  string
	BorrowerID string
	ItemID     string
	Status     string
	Page       int
	Limit      int
}

// CheckoutState is the complete post-state of a checkout, applied atomically.
// Fulfill is non-nil when the checkout consumes a ready reservation.
type CheckoutState struct {
	Loan    *domain.Loan
	Item    *domain.Item
	Member  *domain.Member
	Fulfill *domain.Reservation
}

// ReturnState is the complete post-state of a return, applied atomically.
// Promote is non-nil when the freed copy goes to the head of the hold queue.
type ReturnState struct {
	Loan    *domain.Loan
	Item    *domain.Item
	Member  *domain.Member
	Promote *domain.Reservation
}

// CancelState is the complete post-state of a hold cancellation. Item is
// non-nil only when a held copy is released back to the shelf; Promote is
// non-nil when that copy passes to the next hold instead.
type CancelState struct {
	Reservation *domain.Reservation
	Item        *domain.Item
	Member      *domain.Member
	Promote     *domain.Reservation
}

// CirculationRepository applies multi-entity circulation transitions. Each
// method updates all affected records together or not at all.
type CirculationRepository interface {
	ApplyCheckout(ctx context.Context, st CheckoutState) error
	ApplyReturn(ctx context.Context, st ReturnState) error
	// ApplyCancel also renumbers remaining queue positions above the
	// cancelled hold's slot.
	ApplyCancel(ctx context.Context, st CancelState) error
}

// CheckoutInput carries the parameters of a checkout request.
type CheckoutInput struct {
	ItemID     string
	BorrowerID string
	// DueDate is optional; the zero value derives it from the item's
	// lending period capped by the member's tier.
	DueDate time.Time
	// IdempotencyKey, when non-empty, makes retried checkouts return the
	// originally created loan.
	IdempotencyKey string
}

// ReturnInput carries the parameters of a return request.
type ReturnInput struct {
	LoanID    string
	Condition domain.ItemCondition
	Notes     string
}

// CirculationService implements the lending state transitions.
type CirculationService interface {
	Checkout(ctx context.Context, input CheckoutInput) (*domain.Loan, error)
	Return(ctx context.Context, input ReturnInput) (*domain.Loan, error)
	// MarkLost closes the loan as lost and charges the member the item's
	// replacement value.
	MarkLost(ctx context.Context, loanID string) (*domain.Loan, error)
	Reserve(ctx context.Context, itemID, borrowerID string) (*domain.Reservation, error)
	// CancelReservation cancels a hold. A non-empty actorID restricts the
	// cancellation to the hold's own borrower; staff pass "".
	CancelReservation(ctx context.Context, reservationID, actorID string) (*domain.Reservation, error)
	ListLoans(ctx context.Context, filter ListLoansFilter) ([]*domain.Loan, int64, error)
	ListReservations(ctx context.Context, filter ListReservationsFilter) ([]*domain.Reservation, int64, error)
}
