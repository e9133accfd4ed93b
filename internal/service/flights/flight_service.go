package flights

import (
	"context"
	"time"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/avendar/flightdesk/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

// FlightService serves flight listings with a cache-aside read path. Counts
// served from the cache may be momentarily stale; the authoritative
// availability check happens only in the inventory store.
type FlightService struct {
	repo     repository.FlightRepository
	cache    FlightCache
	cacheTTL time.Duration
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, cacheTTL time.Duration) *FlightService {
	return &FlightService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	return s.repo.ListSeats(ctx, flightID)
}

var _ FlightUseCase = (*FlightService)(nil)
