package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/pricing"
	"github.com/biendoubrian23/YENDI-sub000/internal/utils"
)

type PricingConfigService struct {
	Configs   PricingConfigStore
	RequestID string
}

// Get returns the agency's config, or the defaults when it never saved one.
func (s PricingConfigService) Get(ctx context.Context, agencyID int64) (pricing.Config, error) {
	if agencyID <= 0 {
		return pricing.Config{}, domain.ValidationError{Field: "agencyId", Msg: "must be positive"}
	}
	cfg, err := s.Configs.GetPricingConfig(ctx, agencyID)
	if domain.IsNotFound(err) {
		return pricing.DefaultConfig(), nil
	}
	return cfg, storeErr(err)
}

// Patch merges a partial JSON document onto the current config. Fields
// absent from the patch keep their value; arrays are replaced whole.
func (s PricingConfigService) Patch(ctx context.Context, agencyID int64, patch []byte) (pricing.Config, error) {
	cfg, err := s.Get(ctx, agencyID)
	if err != nil {
		return pricing.Config{}, err
	}
	if len(patch) == 0 {
		return pricing.Config{}, domain.ValidationError{Field: "body", Msg: "empty patch"}
	}
	if err := json.Unmarshal(patch, &cfg); err != nil {
		return pricing.Config{}, domain.ValidationError{Field: "body", Msg: "invalid JSON", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return pricing.Config{}, err
	}
	if err := s.Configs.SavePricingConfig(ctx, agencyID, cfg); err != nil {
		return pricing.Config{}, storeErr(err)
	}
	utils.LogEvent(s.RequestID, "pricing", "patch_config", "pricing config updated",
		zap.Int64("agency_id", agencyID), zap.Bool("enabled", cfg.Enabled))
	return cfg, nil
}
