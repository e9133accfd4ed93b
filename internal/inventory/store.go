// Package inventory is the authoritative per-flight seat state. All seat and
// capacity mutations in the system go through a Store; everything else reads
// snapshots.
package inventory

import (
	"context"

	"github.com/avendar/flightdesk/internal/domain"
)

// Reservation is the opaque handle returned by a successful hold. The token
// is required to confirm or release the hold.
type Reservation struct {
	Token    string
	FlightID int64
	SeatID   int64
}

// Store exposes atomic reservation primitives. The contract: concurrent
// TryReserve calls for the same seat yield exactly one winner, all others
// get domain.ErrSeatUnavailable.
type Store interface {
	// TryReserve succeeds only if the seat is AVAILABLE and the flight has
	// capacity left; on success the seat becomes HELD and available_seats
	// drops by one. ErrSeatUnavailable is an expected outcome, not a fault.
	TryReserve(ctx context.Context, flightID, seatID int64) (*Reservation, error)

	// Confirm transitions the hold to BOOKED. ErrInvalidToken if the token
	// was never issued or was already released.
	Confirm(ctx context.Context, token string) error

	// Release transitions a held or booked seat back to AVAILABLE and
	// returns the capacity. Releasing an unknown or already-released token
	// fails with ErrInvalidToken and has no side effect, which makes
	// retrying a release safe.
	Release(ctx context.Context, token string) (*Reservation, error)

	// GetSeat reads the current seat record, including its price. Reads are
	// snapshot-consistent, not serialized against writers.
	GetSeat(ctx context.Context, flightID, seatID int64) (*domain.Seat, error)
}
