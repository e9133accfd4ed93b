package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPaymentHandler_callback(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(paymentCallbackRequest{
		Reference:     "BK-ABC12345",
		Success:       true,
		TransactionID: "txn-99",
	})
	c.Request = httptest.NewRequest("POST", "/payments/callback", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("OnPaymentResult", c.Request.Context(), "BK-ABC12345", true, "txn-99").Return(nil)

	handler.callback(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestPaymentHandler_callback_unknownBooking(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(paymentCallbackRequest{
		Reference:     "BK-MISSING",
		Success:       false,
		TransactionID: "txn-1",
	})
	c.Request = httptest.NewRequest("POST", "/payments/callback", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("OnPaymentResult", c.Request.Context(), "BK-MISSING", false, "txn-1").
		Return(domain.ErrBookingNotFound)

	handler.callback(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestPaymentHandler_callback_missingReference(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(paymentCallbackRequest{Success: true})
	c.Request = httptest.NewRequest("POST", "/payments/callback", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.callback(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "OnPaymentResult")
}
