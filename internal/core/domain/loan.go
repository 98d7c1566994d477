package domain

import "time"

// LoanStatus is the stored lifecycle state of a loan.
//
// LoanOverdue is never persisted: it is derived from the due date at read
// time via EffectiveLoanStatus so the stored status and the derived state
// cannot disagree.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
	LoanOverdue  LoanStatus = "overdue"
	LoanLost     LoanStatus = "lost"
)

// loanTransitions defines the allowed stored-state transitions.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanActive: {LoanReturned, LoanLost},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Loan links one item to one borrower for a lending period.
type Loan struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	ItemID       string     `json:"item_id" bson:"item_id"`
	BorrowerID   string     `json:"borrower_id" bson:"borrower_id"`
	LibraryID    string     `json:"library_id" bson:"library_id"`
	CheckoutDate time.Time  `json:"checkout_date" bson:"checkout_date"`
	DueDate      time.Time  `json:"due_date" bson:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty" bson:"return_date,omitempty"`
	Status       LoanStatus `json:"status" bson:"status"`
	LateFee      float64    `json:"late_fee,omitempty" bson:"late_fee,omitempty"`
	Notes        string     `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// EffectiveLoanStatus is the single place overdue state is computed. A stored
// active loan whose due date has passed reads as overdue; terminal states are
// returned unchanged.
func EffectiveLoanStatus(l *Loan, now time.Time) LoanStatus {
	if l.Status == LoanActive && now.After(l.DueDate) {
		return LoanOverdue
	}
	return l.Status
}

// OverdueDays returns the number of whole days the loan is past due at now,
// zero when it is not overdue. Any partial day counts as a full one.
func OverdueDays(l *Loan, now time.Time) int {
	if !now.After(l.DueDate) {
		return 0
	}
	d := now.Sub(l.DueDate)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
