package ports

import (
	"context"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

// UserRepository defines persistence for the user directory.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	// List returns a page of users and the total count. Role and status are
	// optional filters; empty means no filter.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// ListUsersFilter carries query parameters for the user directory.
type ListUsersFilter struct {
	Role   string
	Status string
	Search string // partial match on email or full name
	Page   int    // 1-based
	Limit  int
}

// RegisterInput carries the data needed to create an account. Host
// registration also provisions a pending library named LibraryName.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	Phone       string
	Role        string
	LibraryName string
}

// AuthResult is returned on successful login or registration.
type AuthResult struct {
	Token string
	User  *domain.User
}

// AuthService implements registration, login, and account administration.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// UpdateUserStatus flips a user's status; super-user only, enforced by
	// the transport layer.
	UpdateUserStatus(ctx context.Context, userID string, status domain.UserStatus) (*domain.User, error)
	ListUsers(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}
