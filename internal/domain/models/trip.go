package models

import "time"

type TripStatus string

const (
	TripActive    TripStatus = "active"
	TripInactive  TripStatus = "inactive"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// SeatLayout describes the bus floor plan: Rows of Left+Right seats
// around the aisle plus an optional full-width rear row.
type SeatLayout struct {
	Rows    int `json:"rows"`
	Left    int `json:"left"`
	Right   int `json:"right"`
	BackRow int `json:"backRow"`
}

// Capacity is the number of seats the layout draws.
func (l SeatLayout) Capacity() int {
	return l.Rows*(l.Left+l.Right) + l.BackRow
}

// ScheduledTrip is one departure of a route. Agency-owned; only the
// status changes once passengers hold seats.
type ScheduledTrip struct {
	ID                int64      `json:"id"`
	AgencyID          int64      `json:"agencyId"`
	DepartureCity     string     `json:"departureCity"`
	ArrivalCity       string     `json:"arrivalCity"`
	IntermediateStops []string   `json:"intermediateStops,omitempty"`
	DepartureAt       time.Time  `json:"departureAt"`
	ArrivalAt         time.Time  `json:"arrivalAt"`
	BasePrice         int64      `json:"basePrice"`
	TotalSeats        int        `json:"totalSeats"`
	Layout            SeatLayout `json:"layout"`
	Status            TripStatus `json:"status"`
}

// Bookable reports whether new seats may be sold at now.
func (t ScheduledTrip) Bookable(now time.Time) (bool, string) {
	if t.Status != TripActive {
		return false, "status " + string(t.Status)
	}
	if !t.DepartureAt.After(now) {
		return false, "already departed"
	}
	return true, ""
}

// ValidSeat checks a seat number against the trip's seat count.
func (t ScheduledTrip) ValidSeat(seat int) bool {
	return seat >= 1 && seat <= t.TotalSeats
}

// Occupancy is the seat-inventory read model for pricing and seat maps.
type Occupancy struct {
	TripID        int64 `json:"tripId"`
	TotalSeats    int   `json:"totalSeats"`
	ReservedCount int   `json:"reservedCount"`
	SeatNumbers   []int `json:"seatNumbers"`
}

// Percent is the fill rate in [0,100].
func (o Occupancy) Percent() float64 {
	if o.TotalSeats <= 0 {
		return 0
	}
	return float64(o.ReservedCount) * 100 / float64(o.TotalSeats)
}

// TripOccupancy is a sibling trip's fill rate, used by competition pricing.
type TripOccupancy struct {
	TripID        int64 `json:"tripId"`
	TotalSeats    int   `json:"totalSeats"`
	ReservedCount int   `json:"reservedCount"`
}

func (o TripOccupancy) Percent() float64 {
	return Occupancy{TotalSeats: o.TotalSeats, ReservedCount: o.ReservedCount}.Percent()
}
