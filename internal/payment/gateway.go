// Package payment is the port to the external payment collaborator. The
// coordinator calls RequestPayment after a seat is held; results come back
// through the payments callback API or the results topic and are applied via
// the coordinator's OnPaymentResult.
package payment

import (
	"context"

	"github.com/avendar/flightdesk/internal/domain"
	"github.com/avendar/flightdesk/internal/kafka"
)

type Gateway interface {
	RequestPayment(ctx context.Context, booking *domain.Booking) error
}

// KafkaGateway publishes payment requests to the payments topic where the
// collaborator picks them up.
type KafkaGateway struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaGateway(producer *kafka.Producer, topic string) *KafkaGateway {
	return &KafkaGateway{producer: producer, topic: topic}
}

func (g *KafkaGateway) RequestPayment(ctx context.Context, booking *domain.Booking) error {
	return g.producer.Publish(ctx, g.topic, booking.Reference, kafka.PaymentRequest{
		Reference:   booking.Reference,
		CustomerID:  booking.CustomerID,
		AmountCents: booking.TotalPriceCents,
	})
}

var _ Gateway = (*KafkaGateway)(nil)
