package domain

import "time"

// LibrarySettings is per-library circulation configuration.
type LibrarySettings struct {
	LibraryID        string    `json:"library_id" bson:"_id"`
	DefaultLoanDays  int       `json:"default_loan_days" bson:"default_loan_days"`
	LateFeePerDay    float64   `json:"late_fee_per_day" bson:"late_fee_per_day"`
	PickupWindowDays int       `json:"pickup_window_days" bson:"pickup_window_days"`
	Currency         string    `json:"currency" bson:"currency"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultLibrarySettings returns the settings applied to a newly provisioned
// library until its host changes them.
func DefaultLibrarySettings(libraryID string, now time.Time) *LibrarySettings {
	return &LibrarySettings{
		LibraryID:        libraryID,
		DefaultLoanDays:  14,
		LateFeePerDay:    1.0,
		PickupWindowDays: 3,
		Currency:         "USD",
		UpdatedAt:        now,
	}
}

// PlatformSettings holds the platform-wide security toggles managed by
// super-users.
type PlatformSettings struct {
	TwoFactorRequired   bool      `json:"two_factor_required" bson:"two_factor_required"`
	PasswordMinLength   int       `json:"password_min_length" bson:"password_min_length"`
	SessionTTLHours     int       `json:"session_ttl_hours" bson:"session_ttl_hours"`
	MaintenanceMode     bool      `json:"maintenance_mode" bson:"maintenance_mode"`
	RegistrationEnabled bool      `json:"registration_enabled" bson:"registration_enabled"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultPlatformSettings returns the platform defaults used before a
// super-user first saves the security settings.
func DefaultPlatformSettings() *PlatformSettings {
	return &PlatformSettings{
		PasswordMinLength:   8,
		SessionTTLHours:     24,
		RegistrationEnabled: true,
	}
}
