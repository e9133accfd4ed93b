package domain

import "time"

// Payment is the durable record of a settled transaction. It is written once
// per booking when the collaborator reports success; the live payment state
// lives on the booking itself.
type Payment struct {
	ID            int64
	BookingID     int64
	AmountCents   int64
	Status        string
	TransactionID string
	PaymentDate   time.Time
}
