package inventory

import (
	"context"
	"errors"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on Postgres. Mutual exclusion comes from
// conditional UPDATEs: the WHERE clause re-validates the precondition and
// RowsAffected tells us whether we won the race. The seat flip and the
// capacity decrement happen in one transaction so a crash cannot leave them
// disagreeing.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) TryReserve(ctx context.Context, flightID, seatID int64) (*Reservation, error) {
	token := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `UPDATE seats SET status=$1, hold_token=$2, updated_at=now()
		WHERE id=$3 AND flight_id=$4 AND status=$5`,
		domain.SeatStatusHeld, token, seatID, flightID, domain.SeatStatusAvailable)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() == 0 {
		return nil, domain.ErrSeatUnavailable
	}

	res, err = tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats - 1, updated_at=now()
		WHERE id=$1 AND available_seats > 0`, flightID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() == 0 {
		// Seat looked free but the flight is sold out; the deferred
		// rollback undoes the seat flip.
		return nil, domain.ErrSeatUnavailable
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &Reservation{Token: token, FlightID: flightID, SeatID: seatID}, nil
}

func (s *PGStore) Confirm(ctx context.Context, token string) error {
	res, err := s.db.Exec(ctx, `UPDATE seats SET status=$1, updated_at=now()
		WHERE hold_token=$2 AND status=$3`,
		domain.SeatStatusBooked, token, domain.SeatStatusHeld)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		// Confirming an already-booked hold is a no-op, not a fault.
		var status domain.SeatStatus
		err := s.db.QueryRow(ctx, `SELECT status FROM seats WHERE hold_token=$1`, token).Scan(&status)
		if err == nil && status == domain.SeatStatusBooked {
			return nil
		}
		return domain.ErrInvalidToken
	}
	return nil
}

func (s *PGStore) Release(ctx context.Context, token string) (*Reservation, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var flightID, seatID int64
	err = tx.QueryRow(ctx, `UPDATE seats SET status=$1, hold_token=NULL, updated_at=now()
		WHERE hold_token=$2 AND status IN ($3, $4)
		RETURNING flight_id, id`,
		domain.SeatStatusAvailable, token, domain.SeatStatusHeld, domain.SeatStatusBooked).
		Scan(&flightID, &seatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats + 1, updated_at=now()
		WHERE id=$1 AND available_seats < total_seats`, flightID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &Reservation{Token: token, FlightID: flightID, SeatID: seatID}, nil
}

func (s *PGStore) GetSeat(ctx context.Context, flightID, seatID int64) (*domain.Seat, error) {
	row := s.db.QueryRow(ctx, `SELECT id, flight_id, seat_number, class, price_cents, status, COALESCE(hold_token, ''), created_at, updated_at
		FROM seats WHERE id=$1 AND flight_id=$2`, seatID, flightID)
	var st domain.Seat
	if err := row.Scan(&st.ID, &st.FlightID, &st.SeatNumber, &st.Class, &st.PriceCents, &st.Status, &st.HoldToken, &st.CreatedAt, &st.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSeatNotFound
		}
		return nil, err
	}
	return &st, nil
}

var _ Store = (*PGStore)(nil)
