package domain

import "time"

// MemberStatus is the per-library membership state.
type MemberStatus string

const (
	MemberPending   MemberStatus = "pending"
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
)

var memberTransitions = map[MemberStatus][]MemberStatus{
	MemberPending:   {MemberActive, MemberSuspended},
	MemberActive:    {MemberSuspended},
	MemberSuspended: {MemberActive},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s MemberStatus) CanTransitionTo(next MemberStatus) bool {
	for _, allowed := range memberTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Member is a per-library membership wrapper around a user. Loan counters and
// outstanding fees are updated inside the same transaction as the circulation
// operation that changes them, so they cannot drift from the loan collection.
type Member struct {
	ID              string       `json:"id" bson:"_id,omitempty"`
	UserID          string       `json:"user_id" bson:"user_id"`
	LibraryID       string       `json:"library_id" bson:"library_id"`
	TierID          string       `json:"tier_id" bson:"tier_id"`
	Status          MemberStatus `json:"status" bson:"status"`
	JoinDate        time.Time    `json:"join_date" bson:"join_date"`
	TotalLoans      int          `json:"total_loans" bson:"total_loans"`
	ActiveLoans     int          `json:"active_loans" bson:"active_loans"`
	OutstandingFees float64      `json:"outstanding_fees" bson:"outstanding_fees"`
	UpdatedAt       time.Time    `json:"updated_at" bson:"updated_at"`
}

// MembershipTier is a pricing/benefit plan per library. BorrowingLimit caps a
// member's simultaneous active loans; MaxLoanDurationDays caps due dates.
type MembershipTier struct {
	ID                  string    `json:"id" bson:"_id,omitempty"`
	LibraryID           string    `json:"library_id" bson:"library_id"`
	Name                string    `json:"name" bson:"name"`
	Description         string    `json:"description" bson:"description"`
	Price               float64   `json:"price" bson:"price"`
	BillingInterval     string    `json:"billing_interval" bson:"billing_interval"` // monthly | yearly
	BorrowingLimit      int       `json:"borrowing_limit" bson:"borrowing_limit"`
	MaxLoanDurationDays int       `json:"max_loan_duration_days" bson:"max_loan_duration_days"`
	Benefits            []string  `json:"benefits,omitempty" bson:"benefits,omitempty"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}
