package domain

import "time"

// LibraryStatus is the tenant lifecycle state.
type LibraryStatus string

const (
	LibraryPending   LibraryStatus = "pending"
	LibraryActive    LibraryStatus = "active"
	LibrarySuspended LibraryStatus = "suspended"
)

var libraryTransitions = map[LibraryStatus][]LibraryStatus{
	LibraryPending:   {LibraryActive, LibrarySuspended},
	LibraryActive:    {LibrarySuspended},
	LibrarySuspended: {LibraryActive},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s LibraryStatus) CanTransitionTo(next LibraryStatus) bool {
	for _, allowed := range libraryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Library is a tenant record owned by a host user. New libraries start
// pending and must be approved by a super-user before circulation.
type Library struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name"`
	Description  string        `json:"description" bson:"description"`
	Address      string        `json:"address" bson:"address"`
	ContactEmail string        `json:"contact_email" bson:"contact_email"`
	ContactPhone string        `json:"contact_phone" bson:"contact_phone"`
	LogoKey      string        `json:"logo_key,omitempty" bson:"logo_key,omitempty"`
	OwnerID      string        `json:"owner_id" bson:"owner_id"`
	Status       LibraryStatus `json:"status" bson:"status"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}
