package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

type stubUserRepo struct {
	users map[string]*domain.User // keyed by ID
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *u
	r.users[u.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	var out []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && string(u.Status) != f.Status {
			continue
		}
		clone := *u
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubUserRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, u := range r.users {
		out[u.Role]++
	}
	return out, nil
}

type stubLibraryRepo struct {
	libraries map[string]*domain.Library
}

func (r *stubLibraryRepo) Create(_ context.Context, l *domain.Library) error {
	clone := *l
	r.libraries[l.ID] = &clone
	return nil
}

func (r *stubLibraryRepo) FindByID(_ context.Context, id string) (*domain.Library, error) {
	l, ok := r.libraries[id]
	if !ok {
		return nil, domain.ErrLibraryNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *stubLibraryRepo) Update(_ context.Context, l *domain.Library) error {
	if _, ok := r.libraries[l.ID]; !ok {
		return domain.ErrLibraryNotFound
	}
	clone := *l
	r.libraries[l.ID] = &clone
	return nil
}

func (r *stubLibraryRepo) List(_ context.Context, _ ports.ListLibrariesFilter) ([]*domain.Library, int64, error) {
	var out []*domain.Library
	for _, l := range r.libraries {
		clone := *l
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubLibraryRepo) CountByStatus(_ context.Context) (map[domain.LibraryStatus]int64, error) {
	out := make(map[domain.LibraryStatus]int64)
	for _, l := range r.libraries {
		out[l.Status]++
	}
	return out, nil
}

type authFixture struct {
	svc       *AuthService
	users     *stubUserRepo
	libraries *stubLibraryRepo
	settings  *stubSettingsRepo
}

func newAuthFixture() *authFixture {
	users := &stubUserRepo{users: make(map[string]*domain.User)}
	libraries := &stubLibraryRepo{libraries: make(map[string]*domain.Library)}
	settings := &stubSettingsRepo{byLibrary: make(map[string]*domain.LibrarySettings)}
	svc := NewAuthService(users, libraries, settings, nil, "test-secret", time.Hour, zerolog.Nop())
	return &authFixture{svc: svc, users: users, libraries: libraries, settings: settings}
}

func hostRegistration() ports.RegisterInput {
	return ports.RegisterInput{
		Email:       "harriet@example.com",
		Password:    "correct horse",
		FullName:    "Harriet Walsh",
		Role:        domain.RoleHost,
		LibraryName: "Sunshine Toy Library",
	}
}

func TestRegister_HostProvisionsPendingLibrary(t *testing.T) {
	f := newAuthFixture()

	res, err := f.svc.Register(context.Background(), hostRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected a token")
	}
	if res.User.LibraryID == "" {
		t.Fatalf("host must be linked to the provisioned library")
	}

	lib, ok := f.libraries.libraries[res.User.LibraryID]
	if !ok {
		t.Fatalf("library not stored")
	}
	if lib.Status != domain.LibraryPending {
		t.Fatalf("new library must await approval, got %s", lib.Status)
	}
	if lib.OwnerID != res.User.ID {
		t.Fatalf("library owner mismatch")
	}

	// The stored record carries the link too, not just the returned copy.
	stored := f.users.users[res.User.ID]
	if stored.LibraryID != lib.ID {
		t.Fatalf("stored user missing library link")
	}
}

func TestRegister_BorrowerGetsNoLibrary(t *testing.T) {
	f := newAuthFixture()

	res, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:    "ben@example.com",
		Password: "correct horse",
		FullName: "Ben Okafor",
		Role:     domain.RoleBorrower,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.User.LibraryID != "" {
		t.Fatalf("borrower must not own a library")
	}
	if len(f.libraries.libraries) != 0 {
		t.Fatalf("no library should be provisioned")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.Register(context.Background(), hostRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := f.svc.Register(context.Background(), hostRegistration())
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(f.users.users) != 1 || len(f.libraries.libraries) != 1 {
		t.Fatalf("duplicate registration must leave the stores unchanged")
	}
}

func TestRegister_EmailNormalized(t *testing.T) {
	f := newAuthFixture()

	input := hostRegistration()
	input.Email = "  Harriet@Example.COM "
	res, err := f.svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.User.Email != "harriet@example.com" {
		t.Fatalf("expected normalized email, got %q", res.User.Email)
	}

	if _, err := f.svc.Login(context.Background(), "HARRIET@example.com", "correct horse"); err != nil {
		t.Fatalf("login with different casing: %v", err)
	}
}

func TestRegister_SuperUserRoleRejected(t *testing.T) {
	f := newAuthFixture()

	input := hostRegistration()
	input.Role = domain.RoleSuperUser
	_, err := f.svc.Register(context.Background(), input)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegister_PasswordBelowPlatformMinimum(t *testing.T) {
	f := newAuthFixture()
	f.settings.platform = &domain.PlatformSettings{
		RegistrationEnabled: true,
		PasswordMinLength:   12,
	}

	input := hostRegistration()
	input.Password = "short"
	_, err := f.svc.Register(context.Background(), input)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegister_DisabledByPlatformSettings(t *testing.T) {
	f := newAuthFixture()
	f.settings.platform = &domain.PlatformSettings{RegistrationEnabled: false, PasswordMinLength: 8}

	_, err := f.svc.Register(context.Background(), hostRegistration())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.Register(context.Background(), hostRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, unknownErr := f.svc.Login(context.Background(), "nobody@example.com", "whatever")
	_, wrongErr := f.svc.Login(context.Background(), "harriet@example.com", "not the password")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
}

func TestLogin_SuspendedAccount(t *testing.T) {
	f := newAuthFixture()
	res, err := f.svc.Register(context.Background(), hostRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	f.users.users[res.User.ID].Status = domain.UserSuspended

	_, err = f.svc.Login(context.Background(), "harriet@example.com", "correct horse")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLogin_TokenCarriesIdentityClaims(t *testing.T) {
	f := newAuthFixture()
	reg, err := f.svc.Register(context.Background(), hostRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := f.svc.Login(context.Background(), "harriet@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	parsed, err := jwt.Parse(res.Token, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse token: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != reg.User.ID {
		t.Fatalf("expected sub %q, got %v", reg.User.ID, claims["sub"])
	}
	if claims["role"] != domain.RoleHost {
		t.Fatalf("expected role host, got %v", claims["role"])
	}
	if claims["library_id"] != reg.User.LibraryID {
		t.Fatalf("expected library_id %q, got %v", reg.User.LibraryID, claims["library_id"])
	}
}

func TestUpdateUserStatus(t *testing.T) {
	f := newAuthFixture()
	res, err := f.svc.Register(context.Background(), hostRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := f.svc.UpdateUserStatus(context.Background(), res.User.ID, domain.UserSuspended)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if updated.Status != domain.UserSuspended {
		t.Fatalf("expected suspended, got %s", updated.Status)
	}
	if got := f.users.users[res.User.ID].Status; got != domain.UserSuspended {
		t.Fatalf("store not updated, got %s", got)
	}

	if _, err := f.svc.UpdateUserStatus(context.Background(), res.User.ID, "banned"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unknown status, got %v", err)
	}
	if _, err := f.svc.UpdateUserStatus(context.Background(), "missing", domain.UserActive); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
