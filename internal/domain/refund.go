package domain

import (
	"math"
	"time"
)

// Refund tiers, in percent of the price paid for the seat.
const (
	RefundFullPercent    = 100
	RefundPartialPercent = 90
	RefundLatePercent    = 70

	RefundFullMinDays    = 7
	RefundPartialMinDays = 3
)

type RefundQuote struct {
	DaysUntilDeparture int   `json:"daysUntilDeparture"`
	Percent            int   `json:"refundPercent"`
	Amount             int64 `json:"refundAmount"`
	OriginalPrice      int64 `json:"originalPrice"`
	AgencyInitiated    bool  `json:"agencyInitiated"`
}

// DaysUntil is floor((departure - now) / 24h); negative once departed.
func DaysUntil(departure, now time.Time) int {
	return int(math.Floor(departure.Sub(now).Hours() / 24))
}

func RefundPercent(daysUntilDeparture int, agencyInitiated bool) int {
	if agencyInitiated {
		return RefundFullPercent
	}
	switch {
	case daysUntilDeparture >= RefundFullMinDays:
		return RefundFullPercent
	case daysUntilDeparture >= RefundPartialMinDays:
		return RefundPartialPercent
	default:
		return RefundLatePercent
	}
}

// ComputeRefund applies the refund policy to the price paid for one seat.
// A missing price is a ConfigurationError: crediting zero silently would
// hide a broken reservation.
func ComputeRefund(departure, now time.Time, originalPrice int64, agencyInitiated bool) (RefundQuote, error) {
	if originalPrice <= 0 {
		return RefundQuote{}, ConfigurationError{Msg: "reservation has no recorded price, refund needs manual reconciliation"}
	}
	days := DaysUntil(departure, now)
	pct := RefundPercent(days, agencyInitiated)
	return RefundQuote{
		DaysUntilDeparture: days,
		Percent:            pct,
		Amount:             originalPrice * int64(pct) / 100,
		OriginalPrice:      originalPrice,
		AgencyInitiated:    agencyInitiated,
	}, nil
}
