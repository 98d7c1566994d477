package ports

import "context"

// HostDashboard summarizes one library for its host.
type HostDashboard struct {
	ItemsByStatus   map[string]int64 `json:"items_by_status"`
	ActiveLoans     int64            `json:"active_loans"`
	OverdueLoans    int64            `json:"overdue_loans"`
	OpenHolds       int64            `json:"open_holds"`
	OutstandingFees float64          `json:"outstanding_fees"`
}

// PlatformAnalytics summarizes the platform for super-users.
type PlatformAnalytics struct {
	LibrariesByStatus map[string]int64 `json:"libraries_by_status"`
	UsersByRole       map[string]int64 `json:"users_by_role"`
	ActiveLoans       int64            `json:"active_loans"`
	OverdueLoans      int64            `json:"overdue_loans"`
}

// ReportService derives read-only aggregates for dashboards.
type ReportService interface {
	HostDashboard(ctx context.Context, libraryID string) (*HostDashboard, error)
	PlatformAnalytics(ctx context.Context) (*PlatformAnalytics, error)
}
