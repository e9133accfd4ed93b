package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/avendar/flightdesk/internal/inventory"
	"github.com/avendar/flightdesk/internal/kafka"
	"github.com/avendar/flightdesk/internal/ledger"
	"github.com/avendar/flightdesk/internal/payment"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, reference string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, reference string) (*domain.Booking, error)
	GetBooking(ctx context.Context, reference string) (*domain.Booking, error)
	ListBookings(ctx context.Context, f ledger.Filter) ([]domain.Booking, error)
	OnPaymentResult(ctx context.Context, reference string, success bool, transactionID string) error
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
	ReconcileFlagged(ctx context.Context) (int, error)
}

type Cache interface {
	AcquireSeatLock(ctx context.Context, flightID, seatID int64, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, flightID, seatID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// BookingService binds the seat inventory and the booking ledger into one
// transactional protocol. Ordering discipline: reserve mutates inventory
// first and the ledger second; cancel mutates the ledger first and inventory
// second. The side written last is the weaker one, so after a crash the
// stronger side is ground truth for reconciliation.
type BookingService struct {
	inventory          inventory.Store
	ledger             ledger.Ledger
	cache              Cache
	producer           Producer
	gateway            payment.Gateway
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	maxRetries         int
	retryBackoff       time.Duration
}

type CreateBookingInput struct {
	CustomerID     int64  `json:"customer_id"`
	FlightID       int64  `json:"flight_id"`
	SeatID         int64  `json:"seat_id"`
	PassengerCount int    `json:"passenger_count"`
	Notes          string `json:"notes"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithRetryPolicy overrides how often and how patiently the service re-drives
// inventory confirm/release after transient failures.
func WithRetryPolicy(maxRetries int, backoff time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if maxRetries > 0 {
			s.maxRetries = maxRetries
		}
		s.retryBackoff = backoff
	}
}

func NewBookingService(
	store inventory.Store,
	bookings ledger.Ledger,
	cache Cache,
	producer Producer,
	gateway payment.Gateway,
	bookingTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		inventory:    store,
		ledger:       bookings,
		cache:        cache,
		producer:     producer,
		gateway:      gateway,
		bookingTopic: bookingTopic,
		holdTTL:      holdTTL,
		maxRetries:   3,
		retryBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.CustomerID <= 0 {
		return nil, errors.New("customer id is required")
	}
	if input.FlightID <= 0 {
		return nil, errors.New("flight id is required")
	}
	if input.SeatID <= 0 {
		return nil, errors.New("seat id is required")
	}
	if input.PassengerCount <= 0 {
		return nil, errors.New("passenger count must be positive")
	}

	// Cross-process fast path; the authoritative check is TryReserve below.
	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireSeatLock(ctx, input.FlightID, input.SeatID, s.holdTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrSeatUnavailable
		}
		locked = true
	}

	res, err := s.inventory.TryReserve(ctx, input.FlightID, input.SeatID)
	if err != nil {
		if locked {
			_ = s.cache.ReleaseSeatLock(ctx, input.FlightID, input.SeatID)
		}
		return nil, err
	}

	seat, err := s.inventory.GetSeat(ctx, input.FlightID, input.SeatID)
	if err != nil {
		s.releaseHold(ctx, res, locked)
		return nil, err
	}

	now := time.Now()
	booking := &domain.Booking{
		CustomerID:       input.CustomerID,
		FlightID:         input.FlightID,
		SeatID:           input.SeatID,
		PassengerCount:   input.PassengerCount,
		TotalPriceCents:  seat.PriceCents,
		Reference:        newReference(),
		ReservationToken: res.Token,
		BookingDate:      now,
		ExpiresAt:        now.Add(s.holdTTL),
		Notes:            input.Notes,
	}

	if err := s.ledger.Append(ctx, booking); err != nil {
		// TryReserve just won this seat, so an append conflict means the
		// ledger and the inventory disagree about who owns it.
		s.releaseHold(ctx, res, locked)
		if errors.Is(err, domain.ErrDuplicateReference) || errors.Is(err, domain.ErrSeatAlreadyClaimed) {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrInconsistentState)
		}
		return nil, err
	}

	s.publish(ctx, "booking_created", booking)

	if s.gateway != nil {
		if err := s.gateway.RequestPayment(ctx, booking); err != nil {
			log.Printf("request payment for booking %s: %v", booking.Reference, err)
		}
	}

	return booking, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	updated, err := s.ledger.Transition(ctx, reference, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}

	// The ledger transition is durable; inventory is re-driven until it
	// agrees or an operator takes over.
	if err := s.withRetry(func() error {
		return s.inventory.Confirm(ctx, updated.ReservationToken)
	}); err != nil {
		reason := fmt.Sprintf("inventory confirm failed: %v", err)
		log.Printf("booking %s: %s", reference, reason)
		if markErr := s.ledger.MarkNeedsAttention(ctx, reference, reason); markErr != nil {
			log.Printf("booking %s: mark attention: %v", reference, markErr)
		}
		s.publish(ctx, "reconciliation_needed", updated)
	}

	if s.cache != nil {
		_ = s.cache.ReleaseSeatLock(ctx, updated.FlightID, updated.SeatID)
	}
	s.publish(ctx, "booking_confirmed", updated)
	return updated, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	current, err := s.ledger.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if current.IsTerminal() {
		return current, nil
	}

	wasPaid := current.PaymentStatus == domain.PaymentStatusPaid

	updated, err := s.ledger.Transition(ctx, reference, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	if wasPaid {
		if updated, err = s.ledger.SetPaymentStatus(ctx, reference, domain.PaymentStatusRefunded); err != nil {
			return nil, err
		}
	}

	// The cancellation is already durable. A failed release leaks a held
	// seat until reconciliation, which is recoverable; it never produces a
	// double booking, so the cancel does not fail here.
	if err := s.withRetry(func() error {
		_, err := s.inventory.Release(ctx, updated.ReservationToken)
		return err
	}); err != nil {
		reason := fmt.Sprintf("inventory release failed: %v", err)
		log.Printf("booking %s: %s", reference, reason)
		if markErr := s.ledger.MarkNeedsAttention(ctx, reference, reason); markErr != nil {
			log.Printf("booking %s: mark attention: %v", reference, markErr)
		}
		s.publish(ctx, "reconciliation_needed", updated)
	}

	if s.cache != nil {
		_ = s.cache.ReleaseSeatLock(ctx, updated.FlightID, updated.SeatID)
	}
	s.publish(ctx, "booking_cancelled", updated)
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.ledger.GetByReference(ctx, reference)
}

func (s *BookingService) ListBookings(ctx context.Context, f ledger.Filter) ([]domain.Booking, error) {
	return s.ledger.Filter(ctx, f)
}

// OnPaymentResult applies the external collaborator's verdict. Duplicate or
// late callbacks for a booking that is already terminal, or already
// confirmed and paid, are silent no-ops.
func (s *BookingService) OnPaymentResult(ctx context.Context, reference string, success bool, transactionID string) error {
	current, err := s.ledger.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	if current.IsTerminal() {
		return nil
	}

	if !success {
		_, err := s.CancelBooking(ctx, reference)
		return err
	}

	if current.Status == domain.BookingStatusConfirmed && current.PaymentStatus == domain.PaymentStatusPaid {
		return nil
	}

	err = s.ledger.RecordPayment(ctx, &domain.Payment{
		BookingID:     current.ID,
		AmountCents:   current.TotalPriceCents,
		Status:        "COMPLETED",
		TransactionID: transactionID,
		PaymentDate:   time.Now(),
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateTransaction) {
		return err
	}
	// A duplicate transaction means an earlier attempt already recorded the
	// payment; keep driving the booking to its settled state.

	if _, err := s.ledger.SetPaymentStatus(ctx, reference, domain.PaymentStatusPaid); err != nil {
		return err
	}
	if current.Status == domain.BookingStatusPending {
		if _, err := s.ConfirmBooking(ctx, reference); err != nil {
			return err
		}
	}
	return nil
}

// ExpirePendingBookings cancels pending bookings whose hold window elapsed.
// Each one goes through CancelBooking so the sweep follows the same
// ledger-first protocol as an explicit cancel.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	candidates, err := s.ledger.ListExpiredPending(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	expired := make([]domain.Booking, 0, len(candidates))
	for _, b := range candidates {
		cancelled, err := s.CancelBooking(ctx, b.Reference)
		if err != nil {
			log.Printf("expire booking %s: %v", b.Reference, err)
			continue
		}
		s.publish(ctx, "booking_expired", cancelled)
		expired = append(expired, *cancelled)
	}
	return expired, nil
}

// ReconcileFlagged re-drives inventory for bookings whose last inventory
// call failed, clearing the attention flag once both stores agree again.
func (s *BookingService) ReconcileFlagged(ctx context.Context) (int, error) {
	flagged, err := s.ledger.ListNeedsAttention(ctx)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, b := range flagged {
		var invErr error
		switch b.Status {
		case domain.BookingStatusConfirmed:
			invErr = s.inventory.Confirm(ctx, b.ReservationToken)
		case domain.BookingStatusCancelled, domain.BookingStatusFailed:
			_, invErr = s.inventory.Release(ctx, b.ReservationToken)
			if errors.Is(invErr, domain.ErrInvalidToken) {
				// The hold is already gone; the stores agree.
				invErr = nil
			}
		default:
			continue
		}
		if invErr != nil {
			log.Printf("reconcile booking %s: %v", b.Reference, invErr)
			continue
		}
		if err := s.ledger.ClearAttention(ctx, b.Reference); err != nil {
			log.Printf("reconcile booking %s: clear attention: %v", b.Reference, err)
			continue
		}
		fixed++
	}
	return fixed, nil
}

func (s *BookingService) releaseHold(ctx context.Context, res *inventory.Reservation, locked bool) {
	if _, err := s.inventory.Release(ctx, res.Token); err != nil {
		log.Printf("release hold %s: %v", res.Token, err)
	}
	if locked {
		_ = s.cache.ReleaseSeatLock(ctx, res.FlightID, res.SeatID)
	}
}

func (s *BookingService) withRetry(op func() error) error {
	var lastErr error
	for i := 0; i < s.maxRetries; i++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, domain.ErrInvalidToken) {
			// Not transient; retrying cannot help.
			return lastErr
		}
		if i < s.maxRetries-1 {
			time.Sleep(time.Duration(i+1) * s.retryBackoff)
		}
	}
	return lastErr
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:            eventType,
		Reference:       booking.Reference,
		CustomerID:      booking.CustomerID,
		FlightID:        booking.FlightID,
		SeatID:          booking.SeatID,
		Status:          string(booking.Status),
		PaymentStatus:   string(booking.PaymentStatus),
		TotalPriceCents: booking.TotalPriceCents,
		ExpiresAt:       booking.ExpiresAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		log.Printf("publish %s for booking %s: %v", eventType, booking.Reference, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event); err != nil {
			log.Printf("publish notification for booking %s: %v", booking.Reference, err)
		}
	}
}

func newReference() string {
	return "BK-" + strings.ToUpper(uuid.NewString()[:8])
}

var _ BookingUseCase = (*BookingService)(nil)
