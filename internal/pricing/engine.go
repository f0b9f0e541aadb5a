// Package pricing computes dynamic ticket prices. Everything here is pure:
// the same Snapshot and Config always give the same Result.
package pricing

import (
	"time"
)

// Snapshot is what the engine knows about one trip at one instant.
type Snapshot struct {
	BasePrice     int64
	TotalSeats    int
	ReservedSeats int
	DepartureAt   time.Time
	Now           time.Time

	// RecentSales counts reservations made in the trailing velocity window.
	RecentSales int
	// SiblingOccupancy holds fill rates of other trips on the same route and day.
	SiblingOccupancy []float64

	// Unavailable names factors whose inputs could not be loaded.
	Unavailable []string
}

// VelocityWindow is the trailing window counted into RecentSales.
const VelocityWindow = 3 * time.Hour

func (s Snapshot) occupancyPercent() (float64, error) {
	if s.TotalSeats <= 0 {
		return 0, errNoSeats
	}
	return float64(s.ReservedSeats) * 100 / float64(s.TotalSeats), nil
}

func (s Snapshot) hoursUntilDeparture() float64 {
	return s.DepartureAt.Sub(s.Now).Hours()
}

func (s Snapshot) unavailable(name string) bool {
	for _, n := range s.Unavailable {
		if n == name {
			return true
		}
	}
	return false
}

type Adjustment struct {
	Factor string `json:"factor"`
	Amount int64  `json:"amount"`
}

// Result is the computed price plus how it was reached.
type Result struct {
	BasePrice   int64        `json:"basePrice"`
	Price       int64        `json:"price"`
	Ceiling     int64        `json:"ceiling"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
	Skipped     []string     `json:"skipped,omitempty"`
	Capped      bool         `json:"capped,omitempty"`
	Dynamic     bool         `json:"dynamic"`
}

// Engine has no state; the zero value is ready to use from any goroutine.
type Engine struct{}

// Ceiling is floor(base * maxMultiplier). A multiplier below 1 allows no
// increase at all.
func Ceiling(base int64, maxMultiplier float64) int64 {
	if maxMultiplier < 1 {
		return base
	}
	return mulFloor(base, maxMultiplier)
}

// Price runs the factor pipeline. Factors that cannot be computed are
// skipped; the base price is always a valid answer.
func (Engine) Price(s Snapshot, cfg Config) Result {
	base := s.BasePrice
	res := Result{
		BasePrice: base,
		Price:     base,
		Ceiling:   Ceiling(base, cfg.MaxPriceMultiplier),
	}
	if !cfg.Enabled || base <= 0 {
		return res
	}
	res.Dynamic = true

	total := base
	for _, f := range pipeline {
		if !f.enabled(cfg) {
			continue
		}
		if s.unavailable(f.name) {
			res.Skipped = append(res.Skipped, f.name)
			continue
		}
		amount, err := f.adjust(s, cfg)
		if err != nil {
			res.Skipped = append(res.Skipped, f.name)
			continue
		}
		if amount != 0 {
			res.Adjustments = append(res.Adjustments, Adjustment{Factor: f.name, Amount: amount})
		}
		total += amount
	}

	if total < base {
		total = base
	}
	if total > res.Ceiling {
		total = res.Ceiling
		res.Capped = true
	}
	total = roundDown(total, cfg.PriceStep)
	if total < base {
		total = base
	}
	res.Price = total
	return res
}
