package pricing

import (
	"reflect"
	"testing"
	"time"
)

// friday 2026-10-16, 05:00 UTC
var testNow = time.Date(2026, 10, 16, 5, 0, 0, 0, time.UTC)

func onlyFactors(mask int) Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.FillRateEnabled = mask&1 != 0
	cfg.TimeProximityEnabled = mask&2 != 0
	cfg.DemandEnabled = mask&4 != 0
	cfg.VelocityEnabled = mask&8 != 0
	cfg.CompetitionEnabled = mask&16 != 0
	return cfg
}

func TestPriceFillRateScenario(t *testing.T) {
	s := Snapshot{
		BasePrice:     3000,
		TotalSeats:    50,
		ReservedSeats: 48,
		DepartureAt:   testNow.Add(10 * 24 * time.Hour),
		Now:           testNow,
	}
	res := Engine{}.Price(s, onlyFactors(1))
	if res.Price != 3750 {
		t.Fatalf("expected 3750, got %d (%+v)", res.Price, res)
	}
	if len(res.Adjustments) != 1 || res.Adjustments[0].Factor != FactorFillRate || res.Adjustments[0].Amount != 750 {
		t.Fatalf("unexpected breakdown %+v", res.Adjustments)
	}
}

func TestPriceDisabledReturnsBase(t *testing.T) {
	cfg := DefaultConfig()
	s := Snapshot{BasePrice: 3000, TotalSeats: 50, ReservedSeats: 50, DepartureAt: testNow.Add(time.Hour), Now: testNow}
	res := Engine{}.Price(s, cfg)
	if res.Price != 3000 || res.Dynamic {
		t.Fatalf("disabled config should keep base price, got %+v", res)
	}
}

func TestPriceCeilingHoldsForAllFactorCombinations(t *testing.T) {
	s := Snapshot{
		BasePrice:        3000,
		TotalSeats:       50,
		ReservedSeats:    48,
		DepartureAt:      testNow.Add(2 * time.Hour),
		Now:              testNow,
		RecentSales:      12,
		SiblingOccupancy: []float64{10, 20},
	}
	for _, maxMult := range []float64{1.0, 1.2, 1.5, 2.0} {
		for mask := 0; mask < 32; mask++ {
			cfg := onlyFactors(mask)
			cfg.MaxPriceMultiplier = maxMult
			res := Engine{}.Price(s, cfg)
			ceiling := mulFloor(s.BasePrice, maxMult)
			if res.Price > ceiling {
				t.Fatalf("mask %05b max %.2f: price %d above ceiling %d", mask, maxMult, res.Price, ceiling)
			}
			if res.Price < s.BasePrice {
				t.Fatalf("mask %05b max %.2f: price %d below base", mask, maxMult, res.Price)
			}
		}
	}
}

func TestPriceAllFactorsCapped(t *testing.T) {
	s := Snapshot{
		BasePrice:        3000,
		TotalSeats:       50,
		ReservedSeats:    48,
		DepartureAt:      testNow.Add(2 * time.Hour),
		Now:              testNow,
		RecentSales:      12,
		SiblingOccupancy: []float64{10},
	}
	cfg := onlyFactors(31)
	cfg.MaxPriceMultiplier = 1.2
	res := Engine{}.Price(s, cfg)
	if res.Price != 3600 || !res.Capped {
		t.Fatalf("expected capped 3600, got %+v", res)
	}
	if len(res.Adjustments) != 5 {
		t.Fatalf("expected five adjustments, got %+v", res.Adjustments)
	}
}

func TestPriceFillRateMonotonic(t *testing.T) {
	cfg := onlyFactors(1)
	prev := int64(0)
	for reserved := 0; reserved <= 50; reserved++ {
		s := Snapshot{BasePrice: 3000, TotalSeats: 50, ReservedSeats: reserved, DepartureAt: testNow.Add(100 * time.Hour), Now: testNow}
		res := Engine{}.Price(s, cfg)
		if res.Price < prev {
			t.Fatalf("price decreased at %d reserved: %d < %d", reserved, res.Price, prev)
		}
		prev = res.Price
	}
}

func TestFillRateMultiplierGapCarriesLowerTier(t *testing.T) {
	tiers := []FillRateTier{{Min: 0, Max: 40, Multiplier: 1.0}, {Min: 60, Max: 100, Multiplier: 1.2}}
	if m := fillRateMultiplier(tiers, 50); m != 1.0 {
		t.Fatalf("expected 1.0 in gap, got %v", m)
	}
	tiers = []FillRateTier{{Min: 10, Max: 40, Multiplier: 1.1}, {Min: 60, Max: 100, Multiplier: 1.2}}
	if m := fillRateMultiplier(tiers, 5); m != 1.0 {
		t.Fatalf("expected 1.0 below first tier, got %v", m)
	}
	if m := fillRateMultiplier(tiers, 50); m != 1.1 {
		t.Fatalf("expected 1.1 carried forward, got %v", m)
	}
}

func TestTimeProximitySuppressedForEmptyLastMinuteBus(t *testing.T) {
	cfg := onlyFactors(2)
	s := Snapshot{BasePrice: 3000, TotalSeats: 50, ReservedSeats: 5, DepartureAt: testNow.Add(3 * time.Hour), Now: testNow}
	if res := (Engine{}).Price(s, cfg); res.Price != 3000 {
		t.Fatalf("expected no proximity bonus at 10%% occupancy, got %d", res.Price)
	}

	s.ReservedSeats = 15
	if res := (Engine{}).Price(s, cfg); res.Price != 4000 {
		t.Fatalf("expected +1000 at 30%% occupancy, got %d", res.Price)
	}

	s.ReservedSeats = 5
	s.DepartureAt = testNow.Add(12 * time.Hour)
	if res := (Engine{}).Price(s, cfg); res.Price != 3500 {
		t.Fatalf("expected +500 twelve hours out, got %d", res.Price)
	}
}

func TestDemandPeakDayAndHour(t *testing.T) {
	cfg := onlyFactors(4)
	// friday 07:00
	dep := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
	s := Snapshot{BasePrice: 3000, TotalSeats: 50, DepartureAt: dep, Now: dep.Add(-48 * time.Hour)}
	if res := (Engine{}).Price(s, cfg); res.Price != 3800 {
		t.Fatalf("expected 3800, got %d", res.Price)
	}

	// wednesday 12:00
	s.DepartureAt = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	if res := (Engine{}).Price(s, cfg); res.Price != 3000 {
		t.Fatalf("expected base off-peak, got %d", res.Price)
	}

	cfg.Demand.PeakDates = []string{"2026-10-14"}
	if res := (Engine{}).Price(s, cfg); res.Price != 3500 {
		t.Fatalf("expected peak date bonus, got %d", res.Price)
	}
}

func TestVelocityZeroPenaltyFloorsAtBase(t *testing.T) {
	cfg := onlyFactors(8)
	s := Snapshot{BasePrice: 3000, TotalSeats: 50, DepartureAt: testNow.Add(100 * time.Hour), Now: testNow}
	res := Engine{}.Price(s, cfg)
	if res.Price != 3000 {
		t.Fatalf("expected base price, got %d", res.Price)
	}
	if len(res.Adjustments) != 1 || res.Adjustments[0].Amount != -200 {
		t.Fatalf("expected zero-sales penalty in breakdown, got %+v", res.Adjustments)
	}

	s.RecentSales = 6
	if res := (Engine{}).Price(s, cfg); res.Price != 3400 {
		t.Fatalf("expected medium velocity bonus, got %d", res.Price)
	}
}

func TestCompetitionLeaderAndLaggard(t *testing.T) {
	cfg := onlyFactors(16)
	s := Snapshot{BasePrice: 3000, TotalSeats: 50, ReservedSeats: 40, DepartureAt: testNow.Add(100 * time.Hour), Now: testNow, SiblingOccupancy: []float64{20, 50}}
	if res := (Engine{}).Price(s, cfg); res.Price != 3500 {
		t.Fatalf("leader expected 3500, got %d", res.Price)
	}

	s.ReservedSeats = 5
	if res := (Engine{}).Price(s, cfg); res.Price != 3000 {
		t.Fatalf("laggard discount must not go below base, got %d", res.Price)
	}

	s.SiblingOccupancy = nil
	if res := (Engine{}).Price(s, cfg); len(res.Adjustments) != 0 {
		t.Fatalf("no siblings should mean no competition adjustment, got %+v", res.Adjustments)
	}
}

func TestRoundingNeverBelowBase(t *testing.T) {
	cfg := onlyFactors(1)
	s := Snapshot{BasePrice: 3010, TotalSeats: 50, ReservedSeats: 30, DepartureAt: testNow.Add(100 * time.Hour), Now: testNow}
	// 3010 * 1.05 = 3160.5 -> 3160 -> step 50 -> 3150
	if res := (Engine{}).Price(s, cfg); res.Price != 3150 {
		t.Fatalf("expected 3150, got %d", res.Price)
	}

	s.ReservedSeats = 0
	if res := (Engine{}).Price(s, cfg); res.Price != 3010 {
		t.Fatalf("rounding must not go below base, got %d", res.Price)
	}
}

func TestMalformedAndUnavailableFactorsAreSkipped(t *testing.T) {
	cfg := onlyFactors(1 | 8)
	cfg.FillRateTiers = nil
	s := Snapshot{BasePrice: 3000, TotalSeats: 50, ReservedSeats: 48, DepartureAt: testNow.Add(100 * time.Hour), Now: testNow, RecentSales: 12, Unavailable: []string{FactorVelocity}}
	res := Engine{}.Price(s, cfg)
	if res.Price != 3000 {
		t.Fatalf("expected base, got %d", res.Price)
	}
	want := []string{FactorFillRate, FactorVelocity}
	if !reflect.DeepEqual(res.Skipped, want) {
		t.Fatalf("skipped = %v, want %v", res.Skipped, want)
	}
}

func TestPriceDeterministic(t *testing.T) {
	s := Snapshot{BasePrice: 4200, TotalSeats: 45, ReservedSeats: 33, DepartureAt: testNow.Add(20 * time.Hour), Now: testNow, RecentSales: 3, SiblingOccupancy: []float64{50}}
	cfg := onlyFactors(31)
	a := Engine{}.Price(s, cfg)
	b := Engine{}.Price(s, cfg)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input gave %+v and %+v", a, b)
	}
}

func TestCeiling(t *testing.T) {
	if c := Ceiling(3000, 1.15); c != 3450 {
		t.Fatalf("expected 3450, got %d", c)
	}
	if c := Ceiling(3000, 0.5); c != 3000 {
		t.Fatalf("multiplier below one should pin to base, got %d", c)
	}
}
