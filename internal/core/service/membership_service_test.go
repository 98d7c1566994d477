package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

type membershipFixture struct {
	svc     *MembershipService
	members *stubMemberRepo
	tiers   *stubTierRepo
	users   *stubUserRepo
	loans   *stubLoanRepo
}

func newMembershipFixture() *membershipFixture {
	members := &stubMemberRepo{members: make(map[string]*domain.Member)}
	tiers := &stubTierRepo{tiers: make(map[string]*domain.MembershipTier)}
	users := &stubUserRepo{users: make(map[string]*domain.User)}
	loans := &stubLoanRepo{loans: make(map[string]*domain.Loan)}

	users.users["user-1"] = &domain.User{ID: "user-1", Email: "ben@example.com", Role: domain.RoleBorrower, Status: domain.UserActive}
	tiers.tiers["tier-1"] = &domain.MembershipTier{ID: "tier-1", LibraryID: "lib-1", Name: "Basic", BorrowingLimit: 2}

	svc := NewMembershipService(members, tiers, users, loans, nil, zerolog.Nop())
	return &membershipFixture{svc: svc, members: members, tiers: tiers, users: users, loans: loans}
}

func TestAddMember(t *testing.T) {
	f := newMembershipFixture()

	m, err := f.svc.AddMember(context.Background(), ports.AddMemberInput{
		UserID: "user-1", LibraryID: "lib-1", TierID: "tier-1",
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m.Status != domain.MemberActive {
		t.Fatalf("expected active member, got %s", m.Status)
	}

	// Re-enrolment is a no-op returning the existing record.
	again, err := f.svc.AddMember(context.Background(), ports.AddMemberInput{
		UserID: "user-1", LibraryID: "lib-1", TierID: "tier-1",
	})
	if err != nil {
		t.Fatalf("re-enrol: %v", err)
	}
	if again.ID != m.ID {
		t.Fatalf("re-enrolment must return the existing member")
	}
	if len(f.members.members) != 1 {
		t.Fatalf("expected one member, got %d", len(f.members.members))
	}
}

func TestAddMember_TierFromAnotherLibrary(t *testing.T) {
	f := newMembershipFixture()
	f.tiers.tiers["tier-2"] = &domain.MembershipTier{ID: "tier-2", LibraryID: "lib-other", Name: "Basic"}

	_, err := f.svc.AddMember(context.Background(), ports.AddMemberInput{
		UserID: "user-1", LibraryID: "lib-1", TierID: "tier-2",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAddMember_UnknownUser(t *testing.T) {
	f := newMembershipFixture()

	_, err := f.svc.AddMember(context.Background(), ports.AddMemberInput{
		UserID: "ghost", LibraryID: "lib-1", TierID: "tier-1",
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateMemberStatus_Transitions(t *testing.T) {
	f := newMembershipFixture()
	f.members.members["mem-1"] = &domain.Member{
		ID: "mem-1", UserID: "user-1", LibraryID: "lib-1", TierID: "tier-1",
		Status: domain.MemberActive,
	}

	m, err := f.svc.UpdateMemberStatus(context.Background(), "mem-1", domain.MemberSuspended)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if m.Status != domain.MemberSuspended {
		t.Fatalf("expected suspended, got %s", m.Status)
	}

	// Suspended members can only be reactivated, not sent back to pending.
	if _, err := f.svc.UpdateMemberStatus(context.Background(), "mem-1", domain.MemberPending); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Setting the current status is a no-op, not an error.
	if _, err := f.svc.UpdateMemberStatus(context.Background(), "mem-1", domain.MemberSuspended); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
}

func TestSettleFees(t *testing.T) {
	f := newMembershipFixture()
	f.members.members["mem-1"] = &domain.Member{
		ID: "mem-1", UserID: "user-1", LibraryID: "lib-1", TierID: "tier-1",
		Status: domain.MemberActive, OutstandingFees: 10,
	}

	m, err := f.svc.SettleFees(context.Background(), "mem-1", 4)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if m.OutstandingFees != 6 {
		t.Fatalf("expected 6.00 remaining, got %.2f", m.OutstandingFees)
	}

	// Overpayment clears the balance, never goes negative.
	m, err = f.svc.SettleFees(context.Background(), "mem-1", 100)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if m.OutstandingFees != 0 {
		t.Fatalf("expected zero balance, got %.2f", m.OutstandingFees)
	}

	if _, err := f.svc.SettleFees(context.Background(), "mem-1", 0); err == nil {
		t.Fatalf("zero amount must be rejected")
	}
	if _, err := f.svc.SettleFees(context.Background(), "mem-1", -5); err == nil {
		t.Fatalf("negative amount must be rejected")
	}
}

func TestTierLifecycle(t *testing.T) {
	f := newMembershipFixture()

	tier, err := f.svc.AddTier(context.Background(), "lib-1", ports.TierInput{
		Name: "Premium", Price: 10, BillingInterval: "monthly",
		BorrowingLimit: 5, MaxLoanDurationDays: 21,
	})
	if err != nil {
		t.Fatalf("add tier: %v", err)
	}

	updated, err := f.svc.UpdateTier(context.Background(), "lib-1", tier.ID, ports.TierInput{Price: 12})
	if err != nil {
		t.Fatalf("update tier: %v", err)
	}
	if updated.Price != 12 {
		t.Fatalf("expected price 12, got %.2f", updated.Price)
	}
	if updated.Name != "Premium" {
		t.Fatalf("partial update must keep the name, got %q", updated.Name)
	}

	// Another library cannot touch it.
	if _, err := f.svc.UpdateTier(context.Background(), "lib-other", tier.ID, ports.TierInput{Price: 1}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := f.svc.DeleteTier(context.Background(), "lib-1", tier.ID); err != nil {
		t.Fatalf("delete tier: %v", err)
	}
	if _, ok := f.tiers.tiers[tier.ID]; ok {
		t.Fatalf("tier not deleted")
	}
}

func TestGetMember_ReconcilesLoanCounter(t *testing.T) {
	f := newMembershipFixture()
	f.members.members["mem-1"] = &domain.Member{
		ID: "mem-1", UserID: "user-1", LibraryID: "lib-1", TierID: "tier-1",
		Status: domain.MemberActive, ActiveLoans: 3, // drifted
	}
	f.loans.loans["loan-1"] = &domain.Loan{
		ID: "loan-1", ItemID: "item-1", BorrowerID: "user-1", LibraryID: "lib-1",
		Status: domain.LoanActive,
	}

	m, err := f.svc.GetMember(context.Background(), "mem-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.ActiveLoans != 1 {
		t.Fatalf("expected counter reconciled to 1, got %d", m.ActiveLoans)
	}
}

func TestDeleteTier_WithEnrolledMembers(t *testing.T) {
	f := newMembershipFixture()
	f.members.members["mem-1"] = &domain.Member{
		ID: "mem-1", UserID: "user-1", LibraryID: "lib-1", TierID: "tier-1",
		Status: domain.MemberActive,
	}

	err := f.svc.DeleteTier(context.Background(), "lib-1", "tier-1")
	if !errors.Is(err, domain.ErrTierInUse) {
		t.Fatalf("expected ErrTierInUse, got %v", err)
	}
	if _, ok := f.tiers.tiers["tier-1"]; !ok {
		t.Fatalf("tier must survive a rejected delete")
	}
}
