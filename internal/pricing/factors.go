package pricing

import (
	"errors"
	"math"
	"time"
)

const (
	FactorFillRate      = "fill_rate"
	FactorTimeProximity = "time_proximity"
	FactorDemand        = "demand"
	FactorVelocity      = "velocity"
	FactorCompetition   = "competition"
)

// Near-departure empty buses never get the proximity bonus.
const (
	lowOccupancyPercent = 20.0
	lastMinuteHours     = 5.0
)

var (
	errNoTiers       = errors.New("no tiers configured")
	errNoSeats       = errors.New("trip has no seats")
	errBadThresholds = errors.New("velocity thresholds not configured")
)

// factor is one step of the pricing pipeline. adjust returns the amount
// added to the running price; an error means the factor is skipped.
type factor struct {
	name    string
	enabled func(Config) bool
	adjust  func(Snapshot, Config) (int64, error)
}

// pipeline order is part of the pricing contract.
var pipeline = []factor{
	{name: FactorFillRate, enabled: func(c Config) bool { return c.FillRateEnabled }, adjust: fillRateAdjustment},
	{name: FactorTimeProximity, enabled: func(c Config) bool { return c.TimeProximityEnabled }, adjust: timeProximityAdjustment},
	{name: FactorDemand, enabled: func(c Config) bool { return c.DemandEnabled }, adjust: demandAdjustment},
	{name: FactorVelocity, enabled: func(c Config) bool { return c.VelocityEnabled }, adjust: velocityAdjustment},
	{name: FactorCompetition, enabled: func(c Config) bool { return c.CompetitionEnabled }, adjust: competitionAdjustment},
}

// fillRateAdjustment scales the base price, never the running total.
func fillRateAdjustment(s Snapshot, c Config) (int64, error) {
	if len(c.FillRateTiers) == 0 {
		return 0, errNoTiers
	}
	occ, err := s.occupancyPercent()
	if err != nil {
		return 0, err
	}
	mult := fillRateMultiplier(c.FillRateTiers, occ)
	return mulFloor(s.BasePrice, mult) - s.BasePrice, nil
}

// fillRateMultiplier picks the last tier containing occ. Occupancy falling
// in a gap between tiers keeps the multiplier of the tier below it.
func fillRateMultiplier(tiers []FillRateTier, occ float64) float64 {
	mult, found := 1.0, false
	for _, t := range tiers {
		if occ >= t.Min && occ <= t.Max {
			mult, found = t.Multiplier, true
		}
	}
	if found {
		return mult
	}
	for _, t := range tiers {
		if t.Max < occ {
			mult = t.Multiplier
		}
	}
	return mult
}

func timeProximityAdjustment(s Snapshot, c Config) (int64, error) {
	if len(c.TimeProximityTiers) == 0 {
		return 0, errNoTiers
	}
	occ, err := s.occupancyPercent()
	if err != nil {
		return 0, err
	}
	hours := s.hoursUntilDeparture()
	if hours < 0 {
		return 0, nil
	}
	if occ < lowOccupancyPercent && hours < lastMinuteHours {
		return 0, nil
	}
	for _, t := range c.TimeProximityTiers {
		if hours >= t.HoursMin && hours < t.HoursMax {
			return t.Bonus, nil
		}
	}
	return 0, nil
}

func demandAdjustment(s Snapshot, c Config) (int64, error) {
	dep := s.DepartureAt
	var adj int64
	if isPeakDay(dep, c.Demand) {
		adj += c.Demand.PeakDayBonus
	}
	hour := dep.Hour()
	for _, w := range c.Demand.PeakHours {
		if hour >= w.Start && hour < w.End {
			adj += c.Demand.PeakHourBonus
			break
		}
	}
	return adj, nil
}

func isPeakDay(dep time.Time, d DemandConfig) bool {
	for _, name := range d.PeakDays {
		if wd, ok := parseWeekday(name); ok && wd == dep.Weekday() {
			return true
		}
	}
	date := dep.Format("2006-01-02")
	for _, peak := range d.PeakDates {
		if peak == date {
			return true
		}
	}
	return false
}

func velocityAdjustment(s Snapshot, c Config) (int64, error) {
	v := c.Velocity
	if v.LowThreshold < 1 || v.MediumThreshold < v.LowThreshold || v.HighThreshold < v.MediumThreshold {
		return 0, errBadThresholds
	}
	n := s.RecentSales
	switch {
	case n >= v.HighThreshold:
		return v.HighBonus, nil
	case n >= v.MediumThreshold:
		return v.MediumBonus, nil
	case n >= v.LowThreshold:
		return v.LowBonus, nil
	case n <= 0:
		return -v.ZeroPenalty, nil
	default:
		return 0, nil
	}
}

// competitionAdjustment favours the fullest trip among same-route,
// same-day siblings and discounts the emptiest one.
func competitionAdjustment(s Snapshot, c Config) (int64, error) {
	if len(s.SiblingOccupancy) == 0 {
		return 0, nil
	}
	occ, err := s.occupancyPercent()
	if err != nil {
		return 0, err
	}
	higher, lower := 0, 0
	for _, sib := range s.SiblingOccupancy {
		switch {
		case sib > occ:
			higher++
		case sib < occ:
			lower++
		}
	}
	switch {
	case higher == 0 && lower > 0:
		return c.Competition.LeaderBonus, nil
	case lower == 0 && higher > 0:
		return -c.Competition.LaggardDiscount, nil
	default:
		return 0, nil
	}
}

// mulFloor computes floor(base * m), tolerating float noise such as
// 3000 * 1.15 = 3449.9999999999995.
func mulFloor(base int64, m float64) int64 {
	return int64(math.Floor(float64(base)*m + 1e-6))
}

func roundDown(price, step int64) int64 {
	if step <= 1 {
		return price
	}
	return price / step * step
}
