package api

import (
	"errors"
	"net/http"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/avendar/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// PaymentHandler is the inbound half of the payment hook: the external
// collaborator posts its verdict here.
type PaymentHandler struct {
	service booking.BookingUseCase
}

type paymentCallbackRequest struct {
	Reference     string `json:"reference"`
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
}

func NewPaymentHandler(service booking.BookingUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/callback", h.callback)
}

func (h *PaymentHandler) callback(c *gin.Context) {
	var req paymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}

	err := h.service.OnPaymentResult(c.Request.Context(), req.Reference, req.Success, req.TransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
