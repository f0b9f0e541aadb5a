package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
)

// FillRateTier scales the base price while occupancy percent is in [Min, Max].
type FillRateTier struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Multiplier float64 `json:"multiplier"`
}

// TimeProximityTier adds Bonus while hours until departure is in [HoursMin, HoursMax).
type TimeProximityTier struct {
	HoursMin float64 `json:"hoursMin"`
	HoursMax float64 `json:"hoursMax"`
	Bonus    int64   `json:"bonus"`
}

// HourWindow is a local-time departure window [Start, End) in whole hours.
type HourWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type DemandConfig struct {
	PeakDayBonus  int64        `json:"peakDayBonus"`
	PeakHourBonus int64        `json:"peakHourBonus"`
	PeakDays      []string     `json:"peakDays"`
	PeakDates     []string     `json:"peakDates"`
	PeakHours     []HourWindow `json:"peakHours"`
}

// VelocityConfig classifies sales in the trailing window. ZeroPenalty is
// stored positive and subtracted.
type VelocityConfig struct {
	HighThreshold   int   `json:"highThreshold"`
	MediumThreshold int   `json:"mediumThreshold"`
	LowThreshold    int   `json:"lowThreshold"`
	HighBonus       int64 `json:"highBonus"`
	MediumBonus     int64 `json:"mediumBonus"`
	LowBonus        int64 `json:"lowBonus"`
	ZeroPenalty     int64 `json:"zeroPenalty"`
}

type CompetitionConfig struct {
	LeaderBonus     int64 `json:"leaderBonus"`
	LaggardDiscount int64 `json:"laggardDiscount"`
}

// Config is an agency's pricing configuration.
type Config struct {
	Enabled bool `json:"isEnabled"`

	FillRateEnabled bool           `json:"factorFillRateEnabled"`
	FillRateTiers   []FillRateTier `json:"fillRateTiers"`

	TimeProximityEnabled bool                `json:"factorTimeProximityEnabled"`
	TimeProximityTiers   []TimeProximityTier `json:"timeProximityTiers"`

	DemandEnabled bool         `json:"factorDemandEnabled"`
	Demand        DemandConfig `json:"demand"`

	VelocityEnabled bool           `json:"factorVelocityEnabled"`
	Velocity        VelocityConfig `json:"velocity"`

	CompetitionEnabled bool              `json:"factorCompetitionEnabled"`
	Competition        CompetitionConfig `json:"competition"`

	CountdownEnabled         bool  `json:"countdownEnabled"`
	CountdownDurationMinutes int   `json:"countdownDurationMinutes"`
	CountdownPriceIncrease   int64 `json:"countdownPriceIncrease"`

	MaxPriceMultiplier float64 `json:"maxPriceMultiplier"`
	PriceStep          int64   `json:"priceStep"`
}

// DefaultConfig is what a new agency starts from. Dynamic pricing stays
// off until the agency enables it.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		FillRateEnabled: true,
		FillRateTiers: []FillRateTier{
			{Min: 0, Max: 50, Multiplier: 1.0},
			{Min: 50, Max: 70, Multiplier: 1.05},
			{Min: 70, Max: 90, Multiplier: 1.15},
			{Min: 90, Max: 100, Multiplier: 1.25},
		},
		TimeProximityEnabled: true,
		TimeProximityTiers: []TimeProximityTier{
			{HoursMin: 0, HoursMax: 6, Bonus: 1000},
			{HoursMin: 6, HoursMax: 24, Bonus: 500},
			{HoursMin: 24, HoursMax: 72, Bonus: 200},
		},
		DemandEnabled: true,
		Demand: DemandConfig{
			PeakDayBonus:  500,
			PeakHourBonus: 300,
			PeakDays:      []string{"friday", "sunday"},
			PeakHours:     []HourWindow{{Start: 6, End: 9}, {Start: 16, End: 19}},
		},
		VelocityEnabled: true,
		Velocity: VelocityConfig{
			HighThreshold:   10,
			MediumThreshold: 5,
			LowThreshold:    1,
			HighBonus:       800,
			MediumBonus:     400,
			LowBonus:        100,
			ZeroPenalty:     200,
		},
		CompetitionEnabled: false,
		Competition: CompetitionConfig{
			LeaderBonus:     500,
			LaggardDiscount: 250,
		},
		CountdownEnabled:         true,
		CountdownDurationMinutes: 15,
		CountdownPriceIncrease:   500,
		MaxPriceMultiplier:       1.5,
		PriceStep:                50,
	}
}

// CountdownDuration is the lifetime of a price lock.
func (c Config) CountdownDuration() time.Duration {
	return time.Duration(c.CountdownDurationMinutes) * time.Minute
}

// Validate rejects configurations that would break the price ceiling or
// make the fill-rate factor non-monotonic.
func (c Config) Validate() error {
	if c.MaxPriceMultiplier < 1 || c.MaxPriceMultiplier > 10 {
		return domain.ValidationError{Field: "maxPriceMultiplier", Msg: "must be between 1 and 10"}
	}
	if c.PriceStep < 0 {
		return domain.ValidationError{Field: "priceStep", Msg: "must not be negative"}
	}

	prevMin, prevMult := -1.0, 0.0
	for i, t := range c.FillRateTiers {
		field := fmt.Sprintf("fillRateTiers[%d]", i)
		if t.Min < 0 || t.Max > 100 || t.Min > t.Max {
			return domain.ValidationError{Field: field, Msg: "range must satisfy 0 <= min <= max <= 100"}
		}
		if t.Multiplier <= 0 {
			return domain.ValidationError{Field: field, Msg: "multiplier must be positive"}
		}
		if t.Min < prevMin {
			return domain.ValidationError{Field: field, Msg: "tiers must be ordered by min"}
		}
		if t.Multiplier < prevMult {
			return domain.ValidationError{Field: field, Msg: "multiplier must not decrease with occupancy"}
		}
		prevMin, prevMult = t.Min, t.Multiplier
	}

	for i, t := range c.TimeProximityTiers {
		field := fmt.Sprintf("timeProximityTiers[%d]", i)
		if t.HoursMin < 0 || t.HoursMin >= t.HoursMax {
			return domain.ValidationError{Field: field, Msg: "window must satisfy 0 <= hoursMin < hoursMax"}
		}
		if t.Bonus < 0 {
			return domain.ValidationError{Field: field, Msg: "bonus must not be negative"}
		}
	}

	d := c.Demand
	if d.PeakDayBonus < 0 || d.PeakHourBonus < 0 {
		return domain.ValidationError{Field: "demand", Msg: "bonuses must not be negative"}
	}
	for _, name := range d.PeakDays {
		if _, ok := parseWeekday(name); !ok {
			return domain.ValidationError{Field: "demand.peakDays", Msg: "unknown weekday " + name}
		}
	}
	for _, date := range d.PeakDates {
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(date)); err != nil {
			return domain.ValidationError{Field: "demand.peakDates", Msg: "dates use YYYY-MM-DD", Err: err}
		}
	}
	for _, w := range d.PeakHours {
		if w.Start < 0 || w.End > 24 || w.Start >= w.End {
			return domain.ValidationError{Field: "demand.peakHours", Msg: "window must satisfy 0 <= start < end <= 24"}
		}
	}

	v := c.Velocity
	if c.VelocityEnabled {
		if v.LowThreshold < 1 || v.MediumThreshold <= v.LowThreshold || v.HighThreshold <= v.MediumThreshold {
			return domain.ValidationError{Field: "velocity", Msg: "thresholds must satisfy 1 <= low < medium < high"}
		}
	}
	if v.ZeroPenalty < 0 {
		return domain.ValidationError{Field: "velocity.zeroPenalty", Msg: "must not be negative"}
	}

	if c.Competition.LeaderBonus < 0 || c.Competition.LaggardDiscount < 0 {
		return domain.ValidationError{Field: "competition", Msg: "adjustments must not be negative"}
	}

	if c.CountdownEnabled {
		if c.CountdownDurationMinutes <= 0 {
			return domain.ValidationError{Field: "countdownDurationMinutes", Msg: "must be positive when countdown is enabled"}
		}
		if c.CountdownPriceIncrease < 0 {
			return domain.ValidationError{Field: "countdownPriceIncrease", Msg: "must not be negative"}
		}
	}
	return nil
}

func parseWeekday(name string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	default:
		return 0, false
	}
}
