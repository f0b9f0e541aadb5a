package pricing

import (
	"encoding/json"
	"testing"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"multiplier below one": func(c *Config) { c.MaxPriceMultiplier = 0.9 },
		"decreasing tiers": func(c *Config) {
			c.FillRateTiers = []FillRateTier{{Min: 0, Max: 50, Multiplier: 1.2}, {Min: 50, Max: 100, Multiplier: 1.1}}
		},
		"unordered tiers": func(c *Config) {
			c.FillRateTiers = []FillRateTier{{Min: 50, Max: 100, Multiplier: 1.0}, {Min: 0, Max: 50, Multiplier: 1.1}}
		},
		"tier above 100":   func(c *Config) { c.FillRateTiers = []FillRateTier{{Min: 0, Max: 120, Multiplier: 1}} },
		"empty window":     func(c *Config) { c.TimeProximityTiers = []TimeProximityTier{{HoursMin: 6, HoursMax: 6, Bonus: 1}} },
		"unknown weekday":  func(c *Config) { c.Demand.PeakDays = []string{"caturday"} },
		"bad peak date":    func(c *Config) { c.Demand.PeakDates = []string{"16/10/2026"} },
		"bad peak hours":   func(c *Config) { c.Demand.PeakHours = []HourWindow{{Start: 20, End: 25}} },
		"velocity order":   func(c *Config) { c.Velocity.MediumThreshold = 20 },
		"negative penalty": func(c *Config) { c.Velocity.ZeroPenalty = -1 },
		"countdown zero":   func(c *Config) { c.CountdownDurationMinutes = 0 },
		"negative step":    func(c *Config) { c.PriceStep = -50 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
		if !domain.IsValidation(err) {
			t.Fatalf("%s: expected ValidationError, got %T", name, err)
		}
	}
}

func TestConfigJSONFieldNames(t *testing.T) {
	raw := []byte(`{"isEnabled":true,"factorFillRateEnabled":true,"fillRateTiers":[{"min":90,"max":100,"multiplier":1.25}],"maxPriceMultiplier":1.5,"priceStep":50,"countdownEnabled":true,"countdownDurationMinutes":10,"countdownPriceIncrease":300}`)
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !cfg.Enabled || !cfg.FillRateEnabled || len(cfg.FillRateTiers) != 1 || cfg.FillRateTiers[0].Multiplier != 1.25 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.CountdownDuration().Minutes() != 10 {
		t.Fatalf("unexpected countdown %v", cfg.CountdownDuration())
	}
}
