package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLedger implements Ledger on Postgres.
//
// Uniqueness is enforced by the schema: a unique index on reference and a
// partial unique index on (flight_id, seat_id) WHERE status IN
// ('PENDING','CONFIRMED'). Append maps the violation back to the sentinel
// errors so callers never see raw pg errors for expected conflicts.
type PGLedger struct {
	db *pgxpool.Pool
}

func NewPGLedger(db *pgxpool.Pool) *PGLedger {
	return &PGLedger{db: db}
}

const bookingColumns = `id, customer_id, flight_id, seat_id, passenger_count, total_price_cents,
	status, payment_status, reference, reservation_token, booking_date, expires_at,
	needs_attention, COALESCE(attention_reason, ''), COALESCE(notes, ''), created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.CustomerID, &b.FlightID, &b.SeatID, &b.PassengerCount, &b.TotalPriceCents,
		&b.Status, &b.PaymentStatus, &b.Reference, &b.ReservationToken, &b.BookingDate, &b.ExpiresAt,
		&b.NeedsAttention, &b.AttentionReason, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (l *PGLedger) Append(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusPending
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = domain.PaymentStatusUnpaid
	}
	err := l.db.QueryRow(ctx, `INSERT INTO bookings
		(customer_id, flight_id, seat_id, passenger_count, total_price_cents, status, payment_status,
		 reference, reservation_token, booking_date, expires_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		booking.CustomerID, booking.FlightID, booking.SeatID, booking.PassengerCount,
		booking.TotalPriceCents, booking.Status, booking.PaymentStatus, booking.Reference,
		booking.ReservationToken, booking.BookingDate, booking.ExpiresAt, booking.Notes).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "bookings_reference_key":
				return domain.ErrDuplicateReference
			case "bookings_one_active_per_seat":
				return domain.ErrSeatAlreadyClaimed
			}
			return fmt.Errorf("append booking: %w", err)
		}
		return err
	}
	return nil
}

func (l *PGLedger) Transition(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := scanBooking(tx.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE reference=$1 FOR UPDATE`, reference))
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%s -> %s: %w", current.Status, status, domain.ErrInvalidTransition)
	}

	updated, err := scanBooking(tx.QueryRow(ctx,
		`UPDATE bookings SET status=$1, updated_at=now() WHERE reference=$2 RETURNING `+bookingColumns,
		status, reference))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (l *PGLedger) SetPaymentStatus(ctx context.Context, reference string, status domain.PaymentStatus) (*domain.Booking, error) {
	return scanBooking(l.db.QueryRow(ctx,
		`UPDATE bookings SET payment_status=$1, updated_at=now() WHERE reference=$2 RETURNING `+bookingColumns,
		status, reference))
}

func (l *PGLedger) MarkNeedsAttention(ctx context.Context, reference, reason string) error {
	cmd, err := l.db.Exec(ctx,
		`UPDATE bookings SET needs_attention=true, attention_reason=$1, updated_at=now() WHERE reference=$2`,
		reason, reference)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (l *PGLedger) ClearAttention(ctx context.Context, reference string) error {
	cmd, err := l.db.Exec(ctx,
		`UPDATE bookings SET needs_attention=false, attention_reason=NULL, updated_at=now() WHERE reference=$1`,
		reference)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (l *PGLedger) ListNeedsAttention(ctx context.Context) ([]domain.Booking, error) {
	rows, err := l.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE needs_attention ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (l *PGLedger) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return scanBooking(l.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference))
}

func (l *PGLedger) Filter(ctx context.Context, f Filter) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CustomerID != 0 {
		query += ` AND customer_id=` + arg(f.CustomerID)
	}
	if f.FlightID != 0 {
		query += ` AND flight_id=` + arg(f.FlightID)
	}
	if f.Status != "" {
		query += ` AND status=` + arg(f.Status)
	}
	if f.PaymentStatus != "" {
		query += ` AND payment_status=` + arg(f.PaymentStatus)
	}
	if !f.From.IsZero() {
		query += ` AND booking_date >= ` + arg(f.From)
	}
	if !f.To.IsZero() {
		query += ` AND booking_date <= ` + arg(f.To)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (l *PGLedger) RecordPayment(ctx context.Context, payment *domain.Payment) error {
	err := l.db.QueryRow(ctx, `INSERT INTO payments
		(booking_id, amount_cents, status, transaction_id, payment_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		payment.BookingID, payment.AmountCents, payment.Status,
		payment.TransactionID, payment.PaymentDate).
		Scan(&payment.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

func (l *PGLedger) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	rows, err := l.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status=$1 AND expires_at <= $2`,
		domain.BookingStatusPending, now)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ Ledger = (*PGLedger)(nil)
