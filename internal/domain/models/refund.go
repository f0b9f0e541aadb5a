package models

import "time"

// Refund is the ledger entry written when a reservation is cancelled.
// There is at most one per reservation.
type Refund struct {
	ReservationID   string    `json:"reservationId"`
	BookingGroupID  string    `json:"bookingGroupId"`
	PurchaserPhone  string    `json:"purchaserPhone"`
	Percent         int       `json:"refundPercent"`
	Amount          int64     `json:"refundAmount"`
	OriginalPrice   int64     `json:"originalPrice"`
	AgencyInitiated bool      `json:"agencyInitiated"`
	CreatedAt       time.Time `json:"createdAt"`
}
