package main

import (
	"context"
	"time"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/pricing"
	"github.com/biendoubrian23/YENDI-sub000/internal/repositories"
)

// seedDemo fills the in-memory store with a few departures so the API can
// be tried without MySQL.
func seedDemo(ctx context.Context, mem *repositories.MemoryStore, now time.Time) error {
	day := now.Truncate(24 * time.Hour)
	layout := models.SeatLayout{Rows: 12, Left: 2, Right: 2, BackRow: 2}

	trips := []models.ScheduledTrip{
		{AgencyID: 1, DepartureCity: "Douala", ArrivalCity: "Yaounde", IntermediateStops: []string{"Edea"},
			DepartureAt: day.Add(24*time.Hour + 7*time.Hour), BasePrice: 3000},
		{AgencyID: 1, DepartureCity: "Douala", ArrivalCity: "Yaounde",
			DepartureAt: day.Add(24*time.Hour + 15*time.Hour), BasePrice: 3000},
		{AgencyID: 2, DepartureCity: "Yaounde", ArrivalCity: "Bafoussam",
			DepartureAt: day.Add(3*24*time.Hour + 9*time.Hour), BasePrice: 4500},
	}
	for _, t := range trips {
		t.ArrivalAt = t.DepartureAt.Add(4 * time.Hour)
		t.TotalSeats = layout.Capacity()
		t.Layout = layout
		if _, err := mem.CreateTrip(ctx, t); err != nil {
			return err
		}
	}

	cfg := pricing.DefaultConfig()
	cfg.Enabled = true
	return mem.SavePricingConfig(ctx, 1, cfg)
}
