// Package ledger is the durable record of bookings. It enforces the
// one-active-booking-per-seat invariant on its own, independent of the seat
// flags in inventory, so that drift between the two stores is detectable.
package ledger

import (
	"context"
	"time"

	"github.com/avendar/flightdesk/internal/domain"
)

// Filter narrows booking queries. Zero values mean "any".
type Filter struct {
	CustomerID    int64
	FlightID      int64
	Status        domain.BookingStatus
	PaymentStatus domain.PaymentStatus
	From          time.Time
	To            time.Time
}

type Ledger interface {
	// Append records a new booking. ErrDuplicateReference if the reference
	// is taken; ErrSeatAlreadyClaimed if an active booking already exists
	// for the same (flight, seat).
	Append(ctx context.Context, booking *domain.Booking) error

	// Transition moves the booking through the status state machine and
	// returns the updated record. ErrInvalidTransition for anything the
	// table in domain does not allow.
	Transition(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error)

	SetPaymentStatus(ctx context.Context, reference string, status domain.PaymentStatus) (*domain.Booking, error)

	// MarkNeedsAttention flags a booking for operator reconciliation.
	// ClearAttention is its inverse, called once the stores converge again.
	MarkNeedsAttention(ctx context.Context, reference, reason string) error
	ClearAttention(ctx context.Context, reference string) error
	ListNeedsAttention(ctx context.Context) ([]domain.Booking, error)

	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	Filter(ctx context.Context, f Filter) ([]domain.Booking, error)

	// RecordPayment writes the settled transaction for a booking. At most one
	// payment per booking and per transaction id; a replay gets
	// ErrDuplicateTransaction.
	RecordPayment(ctx context.Context, payment *domain.Payment) error

	// ListExpiredPending returns pending bookings whose hold expired before
	// now. It only reads; cancellation goes through the coordinator so the
	// sweep uses the same protocol as an explicit cancel.
	ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Booking, error)
}
