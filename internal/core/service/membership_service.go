package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// MembershipService manages members and tiers for a library.
type MembershipService struct {
	members  ports.MemberRepository
	tiers    ports.TierRepository
	users    ports.UserRepository
	loans    ports.LoanRepository
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewMembershipService(
	members ports.MemberRepository,
	tiers ports.TierRepository,
	users ports.UserRepository,
	loans ports.LoanRepository,
	notifier ports.Notifier,
	log zerolog.Logger,
) *MembershipService {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &MembershipService{members: members, tiers: tiers, users: users, loans: loans, notifier: notifier, log: log}
}

// AddMember enrols an existing user in a library under the given tier.
func (s *MembershipService) AddMember(ctx context.Context, input ports.AddMemberInput) (*domain.Member, error) {
	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		return nil, err
	}
	tier, err := s.tiers.FindByID(ctx, input.TierID)
	if err != nil {
		return nil, err
	}
	if tier.LibraryID != input.LibraryID {
		return nil, domain.ErrForbidden
	}
	if existing, err := s.members.FindByUser(ctx, input.UserID, input.LibraryID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	m := &domain.Member{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		LibraryID: input.LibraryID,
		TierID:    input.TierID,
		Status:    domain.MemberActive,
		JoinDate:  now,
		UpdatedAt: now,
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	s.notifier.Notify(domain.Notification{
		RecipientID: input.UserID,
		LibraryID:   input.LibraryID,
		Severity:    domain.SeveritySuccess,
		Body:        fmt.Sprintf("membership started on the %s plan", tier.Name),
		CreatedAt:   now,
	})
	s.log.Info().Str("member_id", m.ID).Str("library_id", input.LibraryID).Msg("member enrolled")
	return m, nil
}

// GetMember returns the member with the active-loan counter reconciled
// against the loan collection, so a drifted counter never reaches a client.
func (s *MembershipService) GetMember(ctx context.Context, memberID string) (*domain.Member, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	_, live, err := s.loans.List(ctx, ports.ListLoansFilter{
		BorrowerID: m.UserID,
		LibraryID:  m.LibraryID,
		Status:     string(domain.LoanActive),
		Limit:      1,
	})
	if err != nil {
		return m, nil
	}
	if int(live) != m.ActiveLoans {
		s.log.Warn().Str("member_id", m.ID).Int("stored", m.ActiveLoans).Int64("live", live).Msg("active loan counter drift")
		m.ActiveLoans = int(live)
	}
	return m, nil
}

// UpdateMemberStatus flips membership status subject to the member state table.
func (s *MembershipService) UpdateMemberStatus(ctx context.Context, memberID string, status domain.MemberStatus) (*domain.Member, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.Status == status {
		return m, nil
	}
	if !m.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("member %s: %w (from %s to %s)", m.ID, domain.ErrInvalidTransition, m.Status, status)
	}
	m.Status = status
	m.UpdatedAt = time.Now().UTC()
	if err := s.members.Update(ctx, m); err != nil {
		return nil, err
	}

	s.notifier.Notify(domain.Notification{
		RecipientID: m.UserID,
		LibraryID:   m.LibraryID,
		Severity:    domain.SeverityWarning,
		Body:        fmt.Sprintf("your membership is now %s", status),
		CreatedAt:   m.UpdatedAt,
	})
	return m, nil
}

// SettleFees clears up to amount of the member's outstanding fees.
func (s *MembershipService) SettleFees(ctx context.Context, memberID string, amount float64) (*domain.Member, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("settle fees: amount must be positive")
	}
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	m.OutstandingFees -= amount
	if m.OutstandingFees < 0 {
		m.OutstandingFees = 0
	}
	m.UpdatedAt = time.Now().UTC()
	if err := s.members.Update(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info().Str("member_id", m.ID).Float64("amount", amount).Msg("fees settled")
	return m, nil
}

func (s *MembershipService) ListMembers(ctx context.Context, filter ports.ListMembersFilter) ([]*domain.Member, int64, error) {
	return s.members.List(ctx, filter)
}

func (s *MembershipService) AddTier(ctx context.Context, libraryID string, input ports.TierInput) (*domain.MembershipTier, error) {
	now := time.Now().UTC()
	t := &domain.MembershipTier{
		ID:                  uuid.NewString(),
		LibraryID:           libraryID,
		Name:                input.Name,
		Description:         input.Description,
		Price:               input.Price,
		BillingInterval:     input.BillingInterval,
		BorrowingLimit:      input.BorrowingLimit,
		MaxLoanDurationDays: input.MaxLoanDurationDays,
		Benefits:            input.Benefits,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.tiers.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("add tier: %w", err)
	}
	return t, nil
}

func (s *MembershipService) UpdateTier(ctx context.Context, libraryID, tierID string, input ports.TierInput) (*domain.MembershipTier, error) {
	t, err := s.ownedTier(ctx, libraryID, tierID)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		t.Name = input.Name
	}
	if input.Description != "" {
		t.Description = input.Description
	}
	if input.Price > 0 {
		t.Price = input.Price
	}
	if input.BillingInterval != "" {
		t.BillingInterval = input.BillingInterval
	}
	if input.BorrowingLimit > 0 {
		t.BorrowingLimit = input.BorrowingLimit
	}
	if input.MaxLoanDurationDays > 0 {
		t.MaxLoanDurationDays = input.MaxLoanDurationDays
	}
	if input.Benefits != nil {
		t.Benefits = input.Benefits
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.tiers.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTier removes a tier. Tiers with enrolled members cannot be deleted.
func (s *MembershipService) DeleteTier(ctx context.Context, libraryID, tierID string) error {
	if _, err := s.ownedTier(ctx, libraryID, tierID); err != nil {
		return err
	}
	n, err := s.members.CountByTier(ctx, tierID)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrTierInUse
	}
	return s.tiers.Delete(ctx, tierID)
}

func (s *MembershipService) ListTiers(ctx context.Context, libraryID string) ([]*domain.MembershipTier, error) {
	return s.tiers.ListByLibrary(ctx, libraryID)
}

func (s *MembershipService) ownedTier(ctx context.Context, libraryID, tierID string) (*domain.MembershipTier, error) {
	t, err := s.tiers.FindByID(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if libraryID != "" && t.LibraryID != libraryID {
		return nil, domain.ErrForbidden
	}
	return t, nil
}
