package ports

import (
	"context"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

// MemberRepository defines persistence for per-library memberships.
type MemberRepository interface {
	Create(ctx context.Context, m *domain.Member) error
	FindByID(ctx context.Context, id string) (*domain.Member, error)
	// FindByUser returns the user's membership in the given library, or
	// domain.ErrMemberNotFound.
	FindByUser(ctx context.Context, userID, libraryID string) (*domain.Member, error)
	Update(ctx context.Context, m *domain.Member) error
	List(ctx context.Context, filter ListMembersFilter) ([]*domain.Member, int64, error)
	CountByTier(ctx context.Context, tierID string) (int64, error)
	SumOutstandingFees(ctx context.Context, libraryID string) (float64, error)
}

// ListMembersFilter carries query parameters for listing members.
type ListMembersFilter struct {
	LibraryID string
	Status    string
	Page      int
	Limit     int
}

// TierRepository defines persistence for membership tiers.
type TierRepository interface {
	Create(ctx context.Context, t *domain.MembershipTier) error
	FindByID(ctx context.Context, id string) (*domain.MembershipTier, error)
	Update(ctx context.Context, t *domain.MembershipTier) error
	Delete(ctx context.Context, id string) error
	ListByLibrary(ctx context.Context, libraryID string) ([]*domain.MembershipTier, error)
}

// AddMemberInput enrols an existing user in a library.
type AddMemberInput struct {
	UserID    string
	LibraryID string
	TierID    string
}

// TierInput carries the host-editable fields of a membership tier.
type TierInput struct {
	Name                string
	Description         string
	Price               float64
	BillingInterval     string
	BorrowingLimit      int
	MaxLoanDurationDays int
	Benefits            []string
}

// MembershipService manages members and tiers for a library.
type MembershipService interface {
	AddMember(ctx context.Context, input AddMemberInput) (*domain.Member, error)
	GetMember(ctx context.Context, memberID string) (*domain.Member, error)
	UpdateMemberStatus(ctx context.Context, memberID string, status domain.MemberStatus) (*domain.Member, error)
	// SettleFees clears up to amount of the member's outstanding fees and
	// returns the updated record.
	SettleFees(ctx context.Context, memberID string, amount float64) (*domain.Member, error)
	ListMembers(ctx context.Context, filter ListMembersFilter) ([]*domain.Member, int64, error)

	AddTier(ctx context.Context, libraryID string, input TierInput) (*domain.MembershipTier, error)
	UpdateTier(ctx context.Context, libraryID, tierID string, input TierInput) (*domain.MembershipTier, error)
	// DeleteTier fails with domain.ErrTierInUse while members reference it.
	DeleteTier(ctx context.Context, libraryID, tierID string) error
	ListTiers(ctx context.Context, libraryID string) ([]*domain.MembershipTier, error)
}
