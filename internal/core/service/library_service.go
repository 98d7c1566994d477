package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// FavoritesStore abstracts the per-user favorites set (Redis).
type FavoritesStore interface {
	Toggle(ctx context.Context, userID, itemID string) (bool, error)
	List(ctx context.Context, userID string) ([]string, error)
}

// LibraryService manages tenant libraries, settings, and favorites.
type LibraryService struct {
	libraries ports.LibraryRepository
	settings  ports.SettingsRepository
	favorites FavoritesStore
	notifier  ports.Notifier
	log       zerolog.Logger
}

func NewLibraryService(
	libraries ports.LibraryRepository,
	settings ports.SettingsRepository,
	favorites FavoritesStore,
	notifier ports.Notifier,
	log zerolog.Logger,
) *LibraryService {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &LibraryService{libraries: libraries, settings: settings, favorites: favorites, notifier: notifier, log: log}
}

// CreateLibrary provisions a pending tenant for the owner.
func (s *LibraryService) CreateLibrary(ctx context.Context, ownerID string, input ports.LibraryInput) (*domain.Library, error) {
	now := time.Now().UTC()
	l := &domain.Library{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Description:  input.Description,
		Address:      input.Address,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		OwnerID:      ownerID,
		Status:       domain.LibraryPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.libraries.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create library: %w", err)
	}
	s.log.Info().Str("library_id", l.ID).Str("owner_id", ownerID).Msg("library created")
	return l, nil
}

func (s *LibraryService) GetLibrary(ctx context.Context, id string) (*domain.Library, error) {
	return s.libraries.FindByID(ctx, id)
}

func (s *LibraryService) UpdateLibrary(ctx context.Context, id string, input ports.LibraryInput) (*domain.Library, error) {
	l, err := s.libraries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		l.Name = input.Name
	}
	if input.Description != "" {
		l.Description = input.Description
	}
	if input.Address != "" {
		l.Address = input.Address
	}
	if input.ContactEmail != "" {
		l.ContactEmail = input.ContactEmail
	}
	if input.ContactPhone != "" {
		l.ContactPhone = input.ContactPhone
	}
	l.UpdatedAt = time.Now().UTC()
	if err := s.libraries.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// ApproveLibrary activates a pending library.
func (s *LibraryService) ApproveLibrary(ctx context.Context, id string) (*domain.Library, error) {
	return s.transition(ctx, id, domain.LibraryActive, "your library has been approved", domain.SeveritySuccess)
}

// SuspendLibrary suspends an active or pending library.
func (s *LibraryService) SuspendLibrary(ctx context.Context, id string) (*domain.Library, error) {
	return s.transition(ctx, id, domain.LibrarySuspended, "your library has been suspended", domain.SeverityError)
}

// ReinstateLibrary reactivates a suspended library.
func (s *LibraryService) ReinstateLibrary(ctx context.Context, id string) (*domain.Library, error) {
	return s.transition(ctx, id, domain.LibraryActive, "your library has been reinstated", domain.SeveritySuccess)
}

func (s *LibraryService) transition(ctx context.Context, id string, next domain.LibraryStatus, msg string, sev domain.NotificationSeverity) (*domain.Library, error) {
	l, err := s.libraries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("library %s: %w (from %s to %s)", l.ID, domain.ErrInvalidTransition, l.Status, next)
	}
	l.Status = next
	l.UpdatedAt = time.Now().UTC()
	if err := s.libraries.Update(ctx, l); err != nil {
		return nil, err
	}

	s.notifier.Notify(domain.Notification{
		RecipientID: l.OwnerID,
		LibraryID:   l.ID,
		Severity:    sev,
		Body:        msg,
		CreatedAt:   l.UpdatedAt,
	})
	s.log.Info().Str("library_id", l.ID).Str("status", string(next)).Msg("library status updated")
	return l, nil
}

func (s *LibraryService) ListLibraries(ctx context.Context, filter ports.ListLibrariesFilter) ([]*domain.Library, int64, error) {
	return s.libraries.List(ctx, filter)
}

// GetSettings returns the library's settings, falling back to defaults when
// the host never saved any.
func (s *LibraryService) GetSettings(ctx context.Context, libraryID string) (*domain.LibrarySettings, error) {
	cfg, err := s.settings.FindByLibrary(ctx, libraryID)
	if err != nil {
		return domain.DefaultLibrarySettings(libraryID, time.Now().UTC()), nil
	}
	return cfg, nil
}

func (s *LibraryService) UpdateSettings(ctx context.Context, cfg *domain.LibrarySettings) (*domain.LibrarySettings, error) {
	if cfg.DefaultLoanDays <= 0 || cfg.PickupWindowDays <= 0 || cfg.LateFeePerDay < 0 {
		return nil, fmt.Errorf("update settings: invalid values")
	}
	cfg.UpdatedAt = time.Now().UTC()
	if err := s.settings.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *LibraryService) GetPlatformSettings(ctx context.Context) (*domain.PlatformSettings, error) {
	cfg, err := s.settings.FindPlatform(ctx)
	if err != nil {
		return domain.DefaultPlatformSettings(), nil
	}
	return cfg, nil
}

func (s *LibraryService) UpdatePlatformSettings(ctx context.Context, cfg *domain.PlatformSettings) (*domain.PlatformSettings, error) {
	if cfg.PasswordMinLength < 6 {
		return nil, fmt.Errorf("update platform settings: password minimum too low")
	}
	cfg.UpdatedAt = time.Now().UTC()
	if err := s.settings.SavePlatform(ctx, cfg); err != nil {
		return nil, err
	}
	s.log.Info().Msg("platform security settings updated")
	return cfg, nil
}

// ToggleFavorite flips membership of itemID in the user's favorites set.
func (s *LibraryService) ToggleFavorite(ctx context.Context, userID, itemID string) (bool, error) {
	return s.favorites.Toggle(ctx, userID, itemID)
}

func (s *LibraryService) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	return s.favorites.List(ctx, userID)
}
