package inventory

import (
	"context"
	"sync"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore implements Store behind a single mutex. The lock is held only
// for the compare-and-set, never across ledger or payment I/O; the token is
// what lets callers continue the multi-step transaction with the lock
// released. Used by tests and single-process setups; the Postgres store is
// the production path.
type MemoryStore struct {
	mu      sync.Mutex
	flights map[int64]*domain.Flight
	seats   map[int64]*domain.Seat
	tokens  map[string]int64 // hold token -> seat id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights: make(map[int64]*domain.Flight),
		seats:   make(map[int64]*domain.Seat),
		tokens:  make(map[string]int64),
	}
}

func (s *MemoryStore) AddFlight(f domain.Flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights[f.ID] = &f
}

func (s *MemoryStore) AddSeat(seat domain.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seat.Status == "" {
		seat.Status = domain.SeatStatusAvailable
	}
	s.seats[seat.ID] = &seat
}

func (s *MemoryStore) TryReserve(ctx context.Context, flightID, seatID int64) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[seatID]
	if !ok || seat.FlightID != flightID {
		return nil, domain.ErrSeatNotFound
	}
	flight, ok := s.flights[flightID]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	if seat.Status != domain.SeatStatusAvailable || flight.AvailableSeats <= 0 {
		return nil, domain.ErrSeatUnavailable
	}

	token := uuid.NewString()
	seat.Status = domain.SeatStatusHeld
	seat.HoldToken = token
	flight.AvailableSeats--
	s.tokens[token] = seatID

	return &Reservation{Token: token, FlightID: flightID, SeatID: seatID}, nil
}

func (s *MemoryStore) Confirm(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seatID, ok := s.tokens[token]
	if !ok {
		return domain.ErrInvalidToken
	}
	seat := s.seats[seatID]
	if seat.Status == domain.SeatStatusBooked {
		// Confirm is idempotent for a live token.
		return nil
	}
	if seat.Status != domain.SeatStatusHeld {
		return domain.ErrInvalidToken
	}
	seat.Status = domain.SeatStatusBooked
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, token string) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seatID, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	seat := s.seats[seatID]
	seat.Status = domain.SeatStatusAvailable
	seat.HoldToken = ""
	delete(s.tokens, token)

	flight := s.flights[seat.FlightID]
	if flight.AvailableSeats < flight.TotalSeats {
		flight.AvailableSeats++
	}

	return &Reservation{Token: token, FlightID: seat.FlightID, SeatID: seatID}, nil
}

func (s *MemoryStore) GetSeat(ctx context.Context, flightID, seatID int64) (*domain.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[seatID]
	if !ok || seat.FlightID != flightID {
		return nil, domain.ErrSeatNotFound
	}
	copied := *seat
	return &copied, nil
}

// Available returns the current capacity of a flight, for assertions.
func (s *MemoryStore) Available(flightID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.flights[flightID]; ok {
		return f.AvailableSeats
	}
	return 0
}

// SeatStatus returns the current status of a seat, for assertions.
func (s *MemoryStore) SeatStatus(seatID int64) domain.SeatStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seat, ok := s.seats[seatID]; ok {
		return seat.Status
	}
	return ""
}

var _ Store = (*MemoryStore)(nil)
