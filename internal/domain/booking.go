package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusFailed    BookingStatus = "FAILED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type Booking struct {
	ID              int64
	CustomerID      int64
	FlightID        int64
	SeatID          int64
	PassengerCount  int
	TotalPriceCents int64
	Status          BookingStatus
	PaymentStatus   PaymentStatus
	Reference       string
	// ReservationToken is the inventory hold handle; it is the only way to
	// confirm or release the seat this booking claims.
	ReservationToken string
	BookingDate      time.Time
	ExpiresAt        time.Time
	NeedsAttention   bool
	AttentionReason  string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTerminal reports whether the booking can no longer change status.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusFailed
}

// IsActive reports whether the booking holds an exclusive claim on its seat.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusFailed},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

// CanTransition validates the booking status state machine.
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
