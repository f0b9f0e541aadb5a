package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	intconfig "github.com/biendoubrian23/YENDI-sub000/internal/config"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/pricing"
)

// PricingConfigRepo stores one JSON pricing document per agency.
type PricingConfigRepo struct {
	DB *sql.DB
}

func (r PricingConfigRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r PricingConfigRepo) GetPricingConfig(ctx context.Context, agencyID int64) (pricing.Config, error) {
	var (
		cfg pricing.Config
		raw []byte
	)
	err := r.db().QueryRowContext(ctx, `SELECT config FROM pricing_configs WHERE agency_id=?`, agencyID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, domain.NotFoundError{Resource: "pricing config", Err: err}
	}
	if err != nil {
		return cfg, fmt.Errorf("get pricing config: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, domain.ConfigurationError{Msg: fmt.Sprintf("pricing config of agency %d is not valid JSON", agencyID), Err: err}
	}
	return cfg, nil
}

func (r PricingConfigRepo) SavePricingConfig(ctx context.Context, agencyID int64, cfg pricing.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode pricing config: %w", err)
	}
	_, err = r.db().ExecContext(ctx, `
		INSERT INTO pricing_configs (agency_id, config, updated_at)
		VALUES (?,?,?)
		ON DUPLICATE KEY UPDATE config = VALUES(config), updated_at = VALUES(updated_at)`,
		agencyID, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save pricing config: %w", err)
	}
	return nil
}
