package domain

import "time"

// Platform roles. Super-users administer the platform, hosts operate a single
// library, borrowers check items out of one.
const (
	RoleHost      = "host"
	RoleBorrower  = "borrower"
	RoleSuperUser = "super-user"
)

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// User models an authenticated actor. Users are never hard-deleted; suspension
// is the terminal administrative action.
type User struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	Email        string     `json:"email" bson:"email"`
	FullName     string     `json:"full_name" bson:"full_name"`
	Phone        string     `json:"phone,omitempty" bson:"phone,omitempty"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	Role         string     `json:"role" bson:"role"`
	LibraryID    string     `json:"library_id,omitempty" bson:"library_id,omitempty"`
	TierID       string     `json:"tier_id,omitempty" bson:"tier_id,omitempty"`
	Status       UserStatus `json:"status" bson:"status"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// ValidRole reports whether r is a role the platform knows about.
func ValidRole(r string) bool {
	return r == RoleHost || r == RoleBorrower || r == RoleSuperUser
}
