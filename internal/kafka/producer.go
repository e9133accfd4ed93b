package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is the payload published on every booking state change.
type BookingEvent struct {
	Type            string    `json:"type"`
	Reference       string    `json:"reference"`
	CustomerID      int64     `json:"customer_id"`
	FlightID        int64     `json:"flight_id"`
	SeatID          int64     `json:"seat_id"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// PaymentRequest asks the external payment collaborator to collect a
// payment for a held booking.
type PaymentRequest struct {
	Reference   string `json:"reference"`
	CustomerID  int64  `json:"customer_id"`
	AmountCents int64  `json:"amount_cents"`
}

// PaymentResult is the collaborator's callback payload.
type PaymentResult struct {
	Reference     string `json:"reference"`
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// PublishWithRetry retries transient broker failures with a linear backoff.
func (p *Producer) PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = p.Publish(ctx, topic, key, payload); lastErr == nil {
			return nil
		}
		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * 500 * time.Millisecond)
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
