package domain

import "time"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusBooked    SeatStatus = "BOOKED"
)

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "ECONOMY"
	SeatClassBusiness SeatClass = "BUSINESS"
	SeatClassFirst    SeatClass = "FIRST"
)

type Seat struct {
	ID         int64
	FlightID   int64
	SeatNumber string
	Class      SeatClass
	PriceCents int64
	Status     SeatStatus
	// HoldToken is set while the seat is held or booked and empty otherwise.
	HoldToken string
	CreatedAt time.Time
	UpdatedAt time.Time
}
