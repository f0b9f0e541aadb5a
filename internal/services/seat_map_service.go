package services

import (
	"context"
	"time"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/pricing"
)

type SeatMapService struct {
	Trips     TripStore
	Inventory InventoryStore
	Pricing   PriceLockService
	RequestID string
}

type SeatMap struct {
	Trip       models.ScheduledTrip `json:"trip"`
	TotalSeats int                  `json:"totalSeats"`
	Layout     models.SeatLayout    `json:"layout"`
	Taken      []int                `json:"reservedSeatNumbers"`
	Sellable   []int                `json:"sellableSeatNumbers"`
	Available  int                  `json:"availableSeats"`
	Bookable   bool                 `json:"bookable"`
	Price      pricing.Result       `json:"price"`
}

// SeatMap is a read model for seat selection. The price shown is the
// engine's current price, not a lock.
func (s SeatMapService) SeatMap(ctx context.Context, tripID int64, now time.Time) (SeatMap, error) {
	if tripID <= 0 {
		return SeatMap{}, domain.ValidationError{Field: "tripId", Msg: "must be positive"}
	}
	trip, err := s.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return SeatMap{}, storeErr(err)
	}
	occ, err := s.Inventory.Occupancy(ctx, trip.ID)
	if err != nil {
		return SeatMap{}, storeErr(err)
	}

	layout := trip.Layout
	if layout.Capacity() != trip.TotalSeats {
		// no usable floor plan: one seat per row
		layout = models.SeatLayout{Rows: trip.TotalSeats, Left: 1}
	}
	ok, _ := trip.Bookable(now)

	pricer := s.Pricing
	pricer.RequestID = s.RequestID
	price, _ := pricer.CurrentPrice(ctx, trip, now)

	taken := occ.SeatNumbers
	if taken == nil {
		taken = []int{}
	}
	return SeatMap{
		Trip:       trip,
		TotalSeats: trip.TotalSeats,
		Layout:     layout,
		Taken:      taken,
		Sellable:   sellableSeats(trip.TotalSeats, taken, ok),
		Available:  trip.TotalSeats - occ.ReservedCount,
		Bookable:   ok,
		Price:      price,
	}, nil
}

// sellableSeats lists the free seats in order. Nothing is sellable on a
// trip that cannot be booked.
func sellableSeats(total int, taken []int, bookable bool) []int {
	out := []int{}
	if !bookable {
		return out
	}
	held := make(map[int]bool, len(taken))
	for _, n := range taken {
		held[n] = true
	}
	for n := 1; n <= total; n++ {
		if !held[n] {
			out = append(out, n)
		}
	}
	return out
}
