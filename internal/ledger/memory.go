package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avendar/flightdesk/internal/domain"
)

type seatKey struct {
	flightID int64
	seatID   int64
}

// MemoryLedger implements Ledger in process. It mirrors the Postgres
// constraints: unique reference, at most one active booking per seat.
type MemoryLedger struct {
	mu        sync.Mutex
	nextID    int64
	byRef     map[string]*domain.Booking
	activeBy  map[seatKey]string // seat -> reference of the active booking
	payments  map[int64]*domain.Payment
	paymentTx map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		byRef:     make(map[string]*domain.Booking),
		activeBy:  make(map[seatKey]string),
		payments:  make(map[int64]*domain.Payment),
		paymentTx: make(map[string]struct{}),
	}
}

func (l *MemoryLedger) Append(ctx context.Context, booking *domain.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byRef[booking.Reference]; exists {
		return domain.ErrDuplicateReference
	}
	key := seatKey{booking.FlightID, booking.SeatID}
	if _, claimed := l.activeBy[key]; claimed {
		return domain.ErrSeatAlreadyClaimed
	}

	l.nextID++
	booking.ID = l.nextID
	booking.Status = domain.BookingStatusPending
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = domain.PaymentStatusUnpaid
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	l.byRef[booking.Reference] = &stored
	l.activeBy[key] = booking.Reference
	return nil
}

func (l *MemoryLedger) Transition(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byRef[reference]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if !domain.CanTransition(b.Status, status) {
		return nil, fmt.Errorf("%s -> %s: %w", b.Status, status, domain.ErrInvalidTransition)
	}

	b.Status = status
	b.UpdatedAt = time.Now()
	if !b.IsActive() {
		delete(l.activeBy, seatKey{b.FlightID, b.SeatID})
	}
	copied := *b
	return &copied, nil
}

func (l *MemoryLedger) SetPaymentStatus(ctx context.Context, reference string, status domain.PaymentStatus) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byRef[reference]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b.PaymentStatus = status
	b.UpdatedAt = time.Now()
	copied := *b
	return &copied, nil
}

func (l *MemoryLedger) MarkNeedsAttention(ctx context.Context, reference, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byRef[reference]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.NeedsAttention = true
	b.AttentionReason = reason
	b.UpdatedAt = time.Now()
	return nil
}

func (l *MemoryLedger) ClearAttention(ctx context.Context, reference string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byRef[reference]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.NeedsAttention = false
	b.AttentionReason = ""
	b.UpdatedAt = time.Now()
	return nil
}

func (l *MemoryLedger) ListNeedsAttention(ctx context.Context) ([]domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range l.byRef {
		if b.NeedsAttention {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (l *MemoryLedger) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byRef[reference]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (l *MemoryLedger) Filter(ctx context.Context, f Filter) ([]domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range l.byRef {
		if f.CustomerID != 0 && b.CustomerID != f.CustomerID {
			continue
		}
		if f.FlightID != 0 && b.FlightID != f.FlightID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && b.PaymentStatus != f.PaymentStatus {
			continue
		}
		if !f.From.IsZero() && b.BookingDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && b.BookingDate.After(f.To) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (l *MemoryLedger) RecordPayment(ctx context.Context, payment *domain.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.payments[payment.BookingID]; exists {
		return domain.ErrDuplicateTransaction
	}
	if _, exists := l.paymentTx[payment.TransactionID]; exists {
		return domain.ErrDuplicateTransaction
	}

	l.nextID++
	payment.ID = l.nextID
	stored := *payment
	l.payments[payment.BookingID] = &stored
	l.paymentTx[payment.TransactionID] = struct{}{}
	return nil
}

func (l *MemoryLedger) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range l.byRef {
		if b.Status == domain.BookingStatusPending && !b.ExpiresAt.After(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

var _ Ledger = (*MemoryLedger)(nil)
