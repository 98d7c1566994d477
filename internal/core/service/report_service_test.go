package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

func TestHostDashboard(t *testing.T) {
	items := &stubItemRepo{items: map[string]*domain.Item{
		"item-1": {ID: "item-1", LibraryID: "lib-1", Status: domain.ItemAvailable},
		"item-2": {ID: "item-2", LibraryID: "lib-1", Status: domain.ItemLoaned},
		"item-3": {ID: "item-3", LibraryID: "lib-other", Status: domain.ItemAvailable},
	}}
	now := time.Now().UTC()
	loans := &stubLoanRepo{loans: map[string]*domain.Loan{
		"loan-1": {ID: "loan-1", LibraryID: "lib-1", Status: domain.LoanActive, DueDate: now.AddDate(0, 0, 7)},
		"loan-2": {ID: "loan-2", LibraryID: "lib-1", Status: domain.LoanActive, DueDate: now.AddDate(0, 0, -2)},
		"loan-3": {ID: "loan-3", LibraryID: "lib-other", Status: domain.LoanActive, DueDate: now.AddDate(0, 0, 7)},
	}}
	reservations := &stubReservationRepo{reservations: map[string]*domain.Reservation{
		"res-1": {ID: "res-1", LibraryID: "lib-1", ItemID: "item-2", Status: domain.ReservationActive, QueuePosition: 1},
		"res-2": {ID: "res-2", LibraryID: "lib-1", ItemID: "item-2", Status: domain.ReservationCancelled},
	}}
	members := &stubMemberRepo{members: map[string]*domain.Member{
		"mem-1": {ID: "mem-1", LibraryID: "lib-1", OutstandingFees: 4.5},
		"mem-2": {ID: "mem-2", LibraryID: "lib-1", OutstandingFees: 2.0},
		"mem-3": {ID: "mem-3", LibraryID: "lib-other", OutstandingFees: 99},
	}}
	libraries := &stubLibraryRepo{libraries: make(map[string]*domain.Library)}
	users := &stubUserRepo{users: make(map[string]*domain.User)}

	svc := NewReportService(items, loans, reservations, members, libraries, users, zerolog.Nop())

	d, err := svc.HostDashboard(context.Background(), "lib-1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.ItemsByStatus["available"] != 1 || d.ItemsByStatus["loaned"] != 1 {
		t.Fatalf("unexpected item counts: %v", d.ItemsByStatus)
	}
	if d.ActiveLoans != 2 {
		t.Fatalf("expected 2 active loans, got %d", d.ActiveLoans)
	}
	if d.OverdueLoans != 1 {
		t.Fatalf("expected 1 overdue loan, got %d", d.OverdueLoans)
	}
	if d.OpenHolds != 1 {
		t.Fatalf("expected 1 open hold, got %d", d.OpenHolds)
	}
	if d.OutstandingFees != 6.5 {
		t.Fatalf("expected 6.50 in fees, got %.2f", d.OutstandingFees)
	}
}

func TestPlatformAnalytics(t *testing.T) {
	items := &stubItemRepo{items: make(map[string]*domain.Item)}
	loans := &stubLoanRepo{loans: map[string]*domain.Loan{
		"loan-1": {ID: "loan-1", LibraryID: "lib-1", Status: domain.LoanActive, DueDate: time.Now().UTC().AddDate(0, 0, 7)},
	}}
	reservations := &stubReservationRepo{reservations: make(map[string]*domain.Reservation)}
	members := &stubMemberRepo{members: make(map[string]*domain.Member)}
	libraries := &stubLibraryRepo{libraries: map[string]*domain.Library{
		"lib-1": {ID: "lib-1", Status: domain.LibraryActive},
		"lib-2": {ID: "lib-2", Status: domain.LibraryPending},
	}}
	users := &stubUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Role: domain.RoleHost},
		"user-2": {ID: "user-2", Role: domain.RoleBorrower},
		"user-3": {ID: "user-3", Role: domain.RoleBorrower},
	}}

	svc := NewReportService(items, loans, reservations, members, libraries, users, zerolog.Nop())

	a, err := svc.PlatformAnalytics(context.Background())
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.LibrariesByStatus["active"] != 1 || a.LibrariesByStatus["pending"] != 1 {
		t.Fatalf("unexpected library counts: %v", a.LibrariesByStatus)
	}
	if a.UsersByRole[domain.RoleBorrower] != 2 {
		t.Fatalf("expected 2 borrowers, got %v", a.UsersByRole)
	}
	if a.ActiveLoans != 1 {
		t.Fatalf("expected 1 active loan, got %d", a.ActiveLoans)
	}
}
