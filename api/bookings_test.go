package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/avendar/flightdesk/internal/ledger"
	"github.com/avendar/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, f ledger.Filter) ([]domain.Booking, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) OnPaymentResult(ctx context.Context, reference string, success bool, transactionID string) error {
	args := m.Called(ctx, reference, success, transactionID)
	return args.Error(0)
}

func (m *MockBookingUseCase) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ReconcileFlagged(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := booking.CreateBookingInput{
		CustomerID:     42,
		FlightID:       1,
		SeatID:         10,
		PassengerCount: 1,
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Booking{
		ID:             1,
		CustomerID:     42,
		FlightID:       1,
		SeatID:         10,
		PassengerCount: 1,
		Reference:      "BK-ABC12345",
		Status:         domain.BookingStatusPending,
		PaymentStatus:  domain.PaymentStatusUnpaid,
	}

	mockService.On("CreateBooking", c.Request.Context(), input).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "BK-ABC12345", response.Reference)
	assert.Equal(t, string(domain.BookingStatusPending), response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_seatTaken(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := booking.CreateBookingInput{
		CustomerID:     42,
		FlightID:       1,
		SeatID:         10,
		PassengerCount: 1,
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateBooking", c.Request.Context(), input).Return(nil, domain.ErrSeatUnavailable)

	handler.create(c)

	// Seat taken is an expected outcome, rendered as a conflict.
	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_inconsistentState(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := booking.CreateBookingInput{
		CustomerID:     42,
		FlightID:       1,
		SeatID:         10,
		PassengerCount: 1,
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateBooking", c.Request.Context(), input).Return(nil, domain.ErrInconsistentState)

	handler.create(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, true, response["needs_attention"])

	mockService.AssertExpectations(t)
}

func TestBookingHandler_confirm(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	reference := "BK-ABC12345"
	c.Params = gin.Params{{Key: "reference", Value: reference}}
	c.Request = httptest.NewRequest("PUT", "/bookings/"+reference+"/confirm", nil)

	confirmed := &domain.Booking{
		ID:            1,
		FlightID:      1,
		SeatID:        10,
		Reference:     reference,
		Status:        domain.BookingStatusConfirmed,
		PaymentStatus: domain.PaymentStatusPaid,
	}

	mockService.On("ConfirmBooking", c.Request.Context(), reference).Return(confirmed, nil)

	handler.confirm(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.BookingStatusConfirmed), response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_confirm_alreadyCancelled(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	reference := "BK-ABC12345"
	c.Params = gin.Params{{Key: "reference", Value: reference}}
	c.Request = httptest.NewRequest("PUT", "/bookings/"+reference+"/confirm", nil)

	mockService.On("ConfirmBooking", c.Request.Context(), reference).
		Return(nil, domain.ErrInvalidTransition)

	handler.confirm(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	reference := "BK-ABC12345"
	c.Params = gin.Params{{Key: "reference", Value: reference}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/"+reference, nil)

	cancelled := &domain.Booking{
		ID:        1,
		FlightID:  1,
		SeatID:    10,
		Reference: reference,
		Status:    domain.BookingStatusCancelled,
	}

	mockService.On("CancelBooking", c.Request.Context(), reference).Return(cancelled, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.BookingStatusCancelled), response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_get_notFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "reference", Value: "BK-MISSING"}}
	c.Request = httptest.NewRequest("GET", "/bookings/BK-MISSING", nil)

	mockService.On("GetBooking", c.Request.Context(), "BK-MISSING").
		Return(nil, domain.ErrBookingNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/bookings?customer_id=42&status=CONFIRMED", nil)

	expected := ledger.Filter{CustomerID: 42, Status: domain.BookingStatusConfirmed}
	bookings := []domain.Booking{
		{Reference: "BK-1", CustomerID: 42, Status: domain.BookingStatusConfirmed},
	}

	mockService.On("ListBookings", c.Request.Context(), expected).Return(bookings, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response, 1)
	assert.Equal(t, "BK-1", response[0].Reference)

	mockService.AssertExpectations(t)
}
