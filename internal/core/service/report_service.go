package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// ReportService derives read-only aggregates for dashboards. All numbers are
// computed from the live collections, never from cached counters.
type ReportService struct {
	items        ports.ItemRepository
	loans        ports.LoanRepository
	reservations ports.ReservationRepository
	members      ports.MemberRepository
	libraries    ports.LibraryRepository
	users        ports.UserRepository
	log          zerolog.Logger
}

func NewReportService(
	items ports.ItemRepository,
	loans ports.LoanRepository,
	reservations ports.ReservationRepository,
	members ports.MemberRepository,
	libraries ports.LibraryRepository,
	users ports.UserRepository,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		items:        items,
		loans:        loans,
		reservations: reservations,
		members:      members,
		libraries:    libraries,
		users:        users,
		log:          log,
	}
}

func (s *ReportService) HostDashboard(ctx context.Context, libraryID string) (*ports.HostDashboard, error) {
	now := time.Now().UTC()

	byStatus, err := s.items.CountByStatus(ctx, libraryID)
	if err != nil {
		return nil, err
	}
	itemCounts := make(map[string]int64, len(byStatus))
	for k, v := range byStatus {
		itemCounts[string(k)] = v
	}

	active, err := s.loans.CountActive(ctx, libraryID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.loans.CountOverdue(ctx, libraryID, now)
	if err != nil {
		return nil, err
	}
	fees, err := s.members.SumOutstandingFees(ctx, libraryID)
	if err != nil {
		return nil, err
	}

	_, openHolds, err := s.reservations.List(ctx, ports.ListReservationsFilter{LibraryID: libraryID, Status: "active", Limit: 1})
	if err != nil {
		return nil, err
	}

	return &ports.HostDashboard{
		ItemsByStatus:   itemCounts,
		ActiveLoans:     active,
		OverdueLoans:    overdue,
		OpenHolds:       openHolds,
		OutstandingFees: fees,
	}, nil
}

func (s *ReportService) PlatformAnalytics(ctx context.Context) (*ports.PlatformAnalytics, error) {
	now := time.Now().UTC()

	byStatus, err := s.libraries.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	libCounts := make(map[string]int64, len(byStatus))
	for k, v := range byStatus {
		libCounts[string(k)] = v
	}

	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.loans.CountActive(ctx, "")
	if err != nil {
		return nil, err
	}
	overdue, err := s.loans.CountOverdue(ctx, "", now)
	if err != nil {
		return nil, err
	}

	return &ports.PlatformAnalytics{
		LibrariesByStatus: libCounts,
		UsersByRole:       byRole,
		ActiveLoans:       active,
		OverdueLoans:      overdue,
	}, nil
}
