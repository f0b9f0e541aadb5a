package services

import (
	"context"
	"testing"
	"time"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/repositories"
)

func TestPricingConfigDefaultsAndPatch(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := PricingConfigService{Configs: store}
	ctx := context.Background()

	cfg, err := svc.Get(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.Enabled || cfg.MaxPriceMultiplier != 1.5 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	cfg, err = svc.Patch(ctx, 3, []byte(`{"isEnabled":true,"priceStep":100}`))
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !cfg.Enabled || cfg.PriceStep != 100 || len(cfg.FillRateTiers) != 4 {
		t.Fatalf("patch should merge onto defaults, got %+v", cfg)
	}
	stored, _ := store.GetPricingConfig(ctx, 3)
	if !stored.Enabled || stored.PriceStep != 100 {
		t.Fatalf("patch not saved: %+v", stored)
	}
}

func TestPricingConfigPatchRejectsInvalid(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := PricingConfigService{Configs: store}
	ctx := context.Background()

	bad := []string{
		`{"maxPriceMultiplier":0.5}`,
		`{"fillRateTiers":[{"min":0,"max":50,"multiplier":1.2},{"min":50,"max":100,"multiplier":1.1}]}`,
		`{"isEnabled":`,
		``,
	}
	for _, body := range bad {
		if _, err := svc.Patch(ctx, 3, []byte(body)); !domain.IsValidation(err) {
			t.Fatalf("%q: expected validation error, got %v", body, err)
		}
	}
	if _, err := store.GetPricingConfig(ctx, 3); !domain.IsNotFound(err) {
		t.Fatalf("rejected patches must not be saved, got %v", err)
	}
	if _, err := svc.Get(ctx, 0); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for agency 0, got %v", err)
	}
}

func TestSeatMap(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 1, 3000, testDeparture)
	f.config(t, 1, fillRateOnly())
	f.fill(t, trip.ID, 1, 26)

	svc := SeatMapService{Trips: f.store, Inventory: f.store, Pricing: f.pricing}
	m, err := svc.SeatMap(context.Background(), trip.ID, testNow)
	if err != nil {
		t.Fatalf("seat map: %v", err)
	}
	if len(m.Taken) != 26 || m.Available != 24 || !m.Bookable {
		t.Fatalf("unexpected seat map %+v", m)
	}
	if m.TotalSeats != 50 || len(m.Sellable) != 24 || m.Sellable[0] != 27 || m.Sellable[23] != 50 {
		t.Fatalf("expected seats 27..50 sellable, got %v", m.Sellable)
	}
	if m.Layout.Capacity() != 50 {
		t.Fatalf("unexpected layout %+v", m.Layout)
	}
	if m.Price.Price != 3150 || !m.Price.Dynamic {
		t.Fatalf("expected dynamic price 3150, got %+v", m.Price)
	}

	after, _ := svc.SeatMap(context.Background(), trip.ID, testDeparture.Add(time.Minute))
	if after.Bookable || len(after.Sellable) != 0 {
		t.Fatalf("departed trip should not be bookable or sellable, got %v", after.Sellable)
	}
}
