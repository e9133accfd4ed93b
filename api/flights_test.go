package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func TestFlightHandler_list(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/flights", nil)

	flights := []domain.Flight{
		{ID: 1, FlightNumber: "FD204", FromAirport: "AMS", ToAirport: "LIS", TotalSeats: 100, AvailableSeats: 50},
	}

	mockService.On("List", c.Request.Context()).Return(flights, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("GET", "/flights/1", nil)

	flight := &domain.Flight{
		ID: 1, FlightNumber: "FD204", FromAirport: "AMS", ToAirport: "LIS", TotalSeats: 100, AvailableSeats: 50,
	}

	mockService.On("GetByID", c.Request.Context(), int64(1)).Return(flight, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get_notFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "99"}}
	c.Request = httptest.NewRequest("GET", "/flights/99", nil)

	mockService.On("GetByID", c.Request.Context(), int64(99)).Return(nil, domain.ErrFlightNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_seats(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("GET", "/flights/1/seats", nil)

	seats := []domain.Seat{
		{ID: 10, FlightID: 1, SeatNumber: "12A", Class: domain.SeatClassEconomy, Status: domain.SeatStatusAvailable},
		{ID: 11, FlightID: 1, SeatNumber: "12B", Class: domain.SeatClassEconomy, Status: domain.SeatStatusHeld},
	}

	mockService.On("ListSeats", c.Request.Context(), int64(1)).Return(seats, nil)

	handler.seats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
