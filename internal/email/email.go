package email

import (
	"context"
	"log"

	"github.com/avendar/flightdesk/internal/kafka"
)

// Sender turns booking events into customer notifications. The delivery
// channel is a stub; the worker wires it to the notifications topic.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	log.Printf("notify customer %d: booking %s is %s (%s)", event.CustomerID, event.Reference, event.Status, event.Type)
	return nil
}
