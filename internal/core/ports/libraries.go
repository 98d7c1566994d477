package ports

import (
	"context"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

// LibraryRepository defines persistence for tenant libraries.
type LibraryRepository interface {
	Create(ctx context.Context, l *domain.Library) error
	FindByID(ctx context.Context, id string) (*domain.Library, error)
	Update(ctx context.Context, l *domain.Library) error
	List(ctx context.Context, filter ListLibrariesFilter) ([]*domain.Library, int64, error)
	CountByStatus(ctx context.Context) (map[domain.LibraryStatus]int64, error)
}

// ListLibrariesFilter carries query parameters for listing libraries.
type ListLibrariesFilter struct {
	Status string
	Search string // partial match on name or address
	Page   int
	Limit  int
}

// SettingsRepository persists per-library and platform-wide settings.
type SettingsRepository interface {
	// FindByLibrary returns the library's settings, or
	// domain.ErrSettingsNotFound when the host never saved any.
	FindByLibrary(ctx context.Context, libraryID string) (*domain.LibrarySettings, error)
	Save(ctx context.Context, s *domain.LibrarySettings) error
	FindPlatform(ctx context.Context) (*domain.PlatformSettings, error)
	SavePlatform(ctx context.Context, s *domain.PlatformSettings) error
}

// LibraryInput carries the editable fields of a library record.
type LibraryInput struct {
	Name         string
	Description  string
	Address      string
	ContactEmail string
	ContactPhone string
}

// LibraryService manages tenant libraries, their settings, and favorites.
type LibraryService interface {
	CreateLibrary(ctx context.Context, ownerID string, input LibraryInput) (*domain.Library, error)
	GetLibrary(ctx context.Context, id string) (*domain.Library, error)
	UpdateLibrary(ctx context.Context, id string, input LibraryInput) (*domain.Library, error)
	// ApproveLibrary and SuspendLibrary are super-user transitions subject
	// to the library status table.
	ApproveLibrary(ctx context.Context, id string) (*domain.Library, error)
	SuspendLibrary(ctx context.Context, id string) (*domain.Library, error)
	ReinstateLibrary(ctx context.Context, id string) (*domain.Library, error)
	ListLibraries(ctx context.Context, filter ListLibrariesFilter) ([]*domain.Library, int64, error)

	GetSettings(ctx context.Context, libraryID string) (*domain.LibrarySettings, error)
	UpdateSettings(ctx context.Context, s *domain.LibrarySettings) (*domain.LibrarySettings, error)
	GetPlatformSettings(ctx context.Context) (*domain.PlatformSettings, error)
	UpdatePlatformSettings(ctx context.Context, s *domain.PlatformSettings) (*domain.PlatformSettings, error)

	// ToggleFavorite flips membership of itemID in the user's favorites set
	// and reports whether the item is now favorited. Toggling twice is a
	// no-op overall.
	ToggleFavorite(ctx context.Context, userID, itemID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]string, error)
}
