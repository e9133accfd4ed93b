package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/avendar/flightdesk/internal/ledger"
	"github.com/avendar/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	CustomerID     int64  `json:"customer_id"`
	FlightID       int64  `json:"flight_id"`
	SeatID         int64  `json:"seat_id"`
	PassengerCount int    `json:"passenger_count"`
	Notes          string `json:"notes"`
}

type bookingResponse struct {
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	CustomerID      int64  `json:"customer_id"`
	FlightID        int64  `json:"flight_id"`
	SeatID          int64  `json:"seat_id"`
	PassengerCount  int    `json:"passenger_count"`
	TotalPriceCents int64  `json:"total_price_cents"`
	BookingDate     string `json:"booking_date"`
	ExpiresAt       string `json:"expires_at"`
	NeedsAttention  bool   `json:"needs_attention,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:reference", h.get)
	router.PUT("/:reference/confirm", h.confirm)
	router.DELETE("/:reference", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		CustomerID:     req.CustomerID,
		FlightID:       req.FlightID,
		SeatID:         req.SeatID,
		PassengerCount: req.PassengerCount,
		Notes:          req.Notes,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) list(c *gin.Context) {
	var f ledger.Filter
	if v := c.Query("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
			return
		}
		f.CustomerID = id
	}
	if v := c.Query("flight_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight_id"})
			return
		}
		f.FlightID = id
	}
	if v := c.Query("status"); v != "" {
		f.Status = domain.BookingStatus(v)
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		f.To = t
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	confirmed, err := h.service.ConfirmBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(confirmed))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service.CancelBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}

// writeBookingError maps the error taxonomy to status codes: expected
// business outcomes become 409, lookups 404, consistency faults 500 with an
// explicit needs-attention marker so clients can tell them apart from plain
// rejections.
func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSeatUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "seat is not available"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, domain.ErrSeatNotFound), errors.Is(err, domain.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInconsistentState):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":           "booking could not be completed",
			"needs_attention": true,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Reference:       b.Reference,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		CustomerID:      b.CustomerID,
		FlightID:        b.FlightID,
		SeatID:          b.SeatID,
		PassengerCount:  b.PassengerCount,
		TotalPriceCents: b.TotalPriceCents,
		BookingDate:     b.BookingDate.Format(time.RFC3339),
		ExpiresAt:       b.ExpiresAt.Format(time.RFC3339),
		NeedsAttention:  b.NeedsAttention,
	}
}
