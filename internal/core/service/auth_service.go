package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// AuthService implements registration, login, and account administration.
type AuthService struct {
	users     ports.UserRepository
	libraries ports.LibraryRepository
	settings  ports.SettingsRepository
	notifier  ports.Notifier
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	libraries ports.LibraryRepository,
	settings ports.SettingsRepository,
	notifier ports.Notifier,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &AuthService{
		users:     users,
		libraries: libraries,
		settings:  settings,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register creates an account. Duplicate emails fail with ErrUserExists and
// leave the directory unchanged. A host registration also provisions a
// pending library owned by the new user, awaiting super-user approval.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || input.FullName == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if input.Role != domain.RoleHost && input.Role != domain.RoleBorrower {
		return nil, domain.ErrInvalidCredentials
	}

	platform, err := s.settings.FindPlatform(ctx)
	if err != nil {
		platform = domain.DefaultPlatformSettings()
	}
	if !platform.RegistrationEnabled {
		return nil, domain.ErrForbidden
	}
	if len(input.Password) < platform.PasswordMinLength {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     input.FullName,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		Role:         input.Role,
		Status:       domain.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The library ID must be on the user record before it is stored, so
	// host tokens carry it from the first login on.
	var lib *domain.Library
	if input.Role == domain.RoleHost {
		name := input.LibraryName
		if name == "" {
			name = input.FullName + "'s Toy Library"
		}
		lib = &domain.Library{
			ID:        uuid.NewString(),
			Name:      name,
			OwnerID:   user.ID,
			Status:    domain.LibraryPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		user.LibraryID = lib.ID
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	if lib != nil {
		if err := s.libraries.Create(ctx, lib); err != nil {
			return nil, fmt.Errorf("provision library: %w", err)
		}
		s.notifier.Notify(domain.Notification{
			RecipientID: created.ID,
			Severity:    domain.SeverityInfo,
			Body:        fmt.Sprintf("%s is pending approval", lib.Name),
			CreatedAt:   now,
		})
	}

	token, err := s.generateToken(created)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return &ports.AuthResult{Token: token, User: created}, nil
}

// Login authenticates a user and returns a signed token. Unknown emails and
// wrong passwords both fail with ErrInvalidCredentials so the response does
// not reveal which one was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if user.Status == domain.UserSuspended {
		return nil, domain.ErrForbidden
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

// UpdateUserStatus flips a user's status subject to the account state table.
func (s *AuthService) UpdateUserStatus(ctx context.Context, userID string, status domain.UserStatus) (*domain.User, error) {
	if status != domain.UserActive && status != domain.UserSuspended {
		return nil, domain.ErrInvalidTransition
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return user, nil
	}
	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		return nil, err
	}
	user.Status = status
	user.UpdatedAt = time.Now().UTC()

	s.notifier.Notify(domain.Notification{
		RecipientID: userID,
		Severity:    domain.SeverityWarning,
		Body:        fmt.Sprintf("your account is now %s", status),
		CreatedAt:   user.UpdatedAt,
	})
	s.logger.Info().Str("user_id", userID).Str("status", string(status)).Msg("user status updated")
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	return s.users.List(ctx, filter)
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":        user.ID,
		"email":      user.Email,
		"role":       user.Role,
		"library_id": user.LibraryID,
		"exp":        time.Now().Add(s.tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
