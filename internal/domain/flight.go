package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
)

type Flight struct {
	ID             int64
	FlightNumber   string
	FromAirport    string
	ToAirport      string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	Status         FlightStatus
	TotalSeats     int
	AvailableSeats int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
