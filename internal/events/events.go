// Package events publishes booking domain events for downstream consumers
// (notifications, accounting). Publishing is best effort: a failed publish
// never undoes a committed booking.
package events

import "time"

const (
	SubjectBookingCreated       = "booking.created"
	SubjectBookingConfirmed     = "booking.confirmed"
	SubjectReservationCancelled = "reservation.cancelled"
	SubjectTripCancelled        = "trip.cancelled"
)

type Publisher interface {
	Publish(subject string, event any) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }

type BookingCreated struct {
	BookingGroupID string    `json:"bookingGroupId"`
	TripID         int64     `json:"tripId"`
	Seats          []int     `json:"seats"`
	TicketIDs      []string  `json:"ticketIds"`
	UnitPrice      int64     `json:"unitPrice"`
	TotalAmount    int64     `json:"totalAmount"`
	PurchaserPhone string    `json:"purchaserPhone"`
	CreatedAt      time.Time `json:"createdAt"`
}

type BookingConfirmed struct {
	BookingGroupID string    `json:"bookingGroupId"`
	Confirmed      int       `json:"confirmed"`
	At             time.Time `json:"at"`
}

type ReservationCancelled struct {
	ReservationID   string    `json:"reservationId"`
	BookingGroupID  string    `json:"bookingGroupId"`
	TripID          int64     `json:"tripId"`
	SeatNumber      int       `json:"seatNumber"`
	RefundPercent   int       `json:"refundPercent"`
	RefundAmount    int64     `json:"refundAmount"`
	AgencyInitiated bool      `json:"agencyInitiated"`
	At              time.Time `json:"at"`
}

type TripCancelled struct {
	TripID       int64     `json:"tripId"`
	Reservations int       `json:"reservations"`
	RefundTotal  int64     `json:"refundTotal"`
	At           time.Time `json:"at"`
}
