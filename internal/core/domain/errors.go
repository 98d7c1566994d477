package domain

import "errors"

// Lookup failures. Every operation that touches a missing record returns the
// matching sentinel so callers can tell "not found" from "succeeded".
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrLibraryNotFound     = errors.New("library not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrTierNotFound        = errors.New("membership tier not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrSettingsNotFound    = errors.New("settings not found")
)

// Auth failures.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

// Circulation guards.
var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrItemUnavailable       = errors.New("item not available")
	ErrBorrowingLimitReached = errors.New("borrowing limit reached")
	ErrMemberSuspended       = errors.New("membership is not active")
	ErrLoanAlreadyOpen       = errors.New("borrower already has an active loan for this item")
	ErrDuplicateReservation  = errors.New("borrower already holds a reservation for this item")
	ErrTierInUse             = errors.New("membership tier has active members")
)
