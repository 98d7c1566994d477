package domain

import (
	"testing"
	"time"
)

func TestLoanStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to LoanStatus
		ok       bool
	}{
		{LoanActive, LoanReturned, true},
		{LoanActive, LoanLost, true},
		{LoanReturned, LoanActive, false},
		{LoanReturned, LoanLost, false},
		{LoanLost, LoanReturned, false},
		// Overdue is derived, never a stored source state.
		{LoanOverdue, LoanReturned, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestEffectiveLoanStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	active := &Loan{Status: LoanActive, DueDate: now.AddDate(0, 0, 1)}
	if got := EffectiveLoanStatus(active, now); got != LoanActive {
		t.Errorf("not yet due: got %s", got)
	}

	pastDue := &Loan{Status: LoanActive, DueDate: now.Add(-time.Minute)}
	if got := EffectiveLoanStatus(pastDue, now); got != LoanOverdue {
		t.Errorf("past due: got %s", got)
	}

	// Exactly at the due instant is not overdue yet.
	atDue := &Loan{Status: LoanActive, DueDate: now}
	if got := EffectiveLoanStatus(atDue, now); got != LoanActive {
		t.Errorf("at due instant: got %s", got)
	}

	// Terminal states never read as overdue, however old the due date.
	returned := &Loan{Status: LoanReturned, DueDate: now.AddDate(0, 0, -30)}
	if got := EffectiveLoanStatus(returned, now); got != LoanReturned {
		t.Errorf("returned: got %s", got)
	}
	lost := &Loan{Status: LoanLost, DueDate: now.AddDate(0, 0, -30)}
	if got := EffectiveLoanStatus(lost, now); got != LoanLost {
		t.Errorf("lost: got %s", got)
	}
}

func TestOverdueDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		due  time.Time
		want int
	}{
		{"not due", now.AddDate(0, 0, 2), 0},
		{"due now", now, 0},
		{"one hour late", now.Add(-time.Hour), 1},
		{"exactly one day", now.Add(-24 * time.Hour), 1},
		{"one day and a bit", now.Add(-25 * time.Hour), 2},
		{"two and a half days", now.Add(-60 * time.Hour), 3},
	}
	for _, c := range cases {
		l := &Loan{Status: LoanActive, DueDate: c.due}
		if got := OverdueDays(l, now); got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}
