package models

import "time"

type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Active is true for every status that still holds the seat.
func (s ReservationStatus) Active() bool {
	return s == ReservationReserved || s == ReservationConfirmed
}

// SeatReservation holds one seat of one trip. Its ID doubles as the
// ticket identifier handed back to the purchaser.
type SeatReservation struct {
	ID             string            `json:"id"`
	TripID         int64             `json:"tripId"`
	SeatNumber     int               `json:"seatNumber"`
	Status         ReservationStatus `json:"status"`
	PassengerName  string            `json:"passengerName"`
	PassengerPhone string            `json:"passengerPhone"`
	BookingGroupID string            `json:"bookingGroupId"`
	Price          int64             `json:"price"`
	CreatedAt      time.Time         `json:"createdAt"`
	CancelledAt    *time.Time        `json:"cancelledAt,omitempty"`

	// PurchaserPhone is read from the owning booking group.
	PurchaserPhone string `json:"-"`
}

// BookingGroup is one purchase covering one or more seats.
type BookingGroup struct {
	ID             string            `json:"id"`
	TripID         int64             `json:"tripId"`
	PurchaserName  string            `json:"purchaserName"`
	PurchaserPhone string            `json:"purchaserPhone"`
	PurchaserEmail string            `json:"purchaserEmail,omitempty"`
	PaymentMethod  string            `json:"paymentMethod"`
	UnitPrice      int64             `json:"unitPrice"`
	TotalAmount    int64             `json:"totalAmount"`
	CreatedAt      time.Time         `json:"createdAt"`
	Reservations   []SeatReservation `json:"reservations,omitempty"`
}

// PassengerInput carries per-seat passenger info.
type PassengerInput struct {
	SeatNumber int    `json:"seatNumber"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}
