package domain

import "errors"

// Expected business outcomes. These are ordinary results the API layer maps
// to 4xx responses, not faults.
var (
	ErrSeatUnavailable   = errors.New("seat unavailable")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// Lookup failures.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrFlightNotFound  = errors.New("flight not found")
	ErrSeatNotFound    = errors.New("seat not found")
)

// Consistency failures. Any of these on a path that should not produce them
// means the inventory and the ledger have drifted apart and an operator has
// to look at the booking.
var (
	ErrInvalidToken       = errors.New("invalid reservation token")
	ErrDuplicateReference = errors.New("duplicate booking reference")
	ErrSeatAlreadyClaimed = errors.New("seat already claimed by an active booking")
	ErrInconsistentState  = errors.New("inventory and ledger are inconsistent")
)

// ErrDuplicateTransaction means a payment with the same transaction id or for
// the same booking was already recorded. Callers treat it as a replay.
var ErrDuplicateTransaction = errors.New("payment transaction already recorded")
