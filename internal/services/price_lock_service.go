package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/metrics"
	"github.com/biendoubrian23/YENDI-sub000/internal/pricing"
	"github.com/biendoubrian23/YENDI-sub000/internal/utils"
)

// Quote sources, also used as metric labels.
const (
	QuoteLocked   = "locked"   // unexpired lock returned as is
	QuoteFresh    = "fresh"    // first lock for the subject
	QuoteRepriced = "repriced" // lock expired, bumped price
	QuoteUnlocked = "unlocked" // no subject, countdown off or lock store down
	QuoteBase     = "base"     // pricing config unusable
)

// PriceLockService quotes prices and keeps the per-subject countdown lock.
type PriceLockService struct {
	Trips     TripStore
	Inventory InventoryStore
	Configs   PricingConfigStore
	Locks     PriceLockStore
	Engine    pricing.Engine
	Metrics   *metrics.Collector
	RequestID string
}

type Quote struct {
	TripID        int64          `json:"tripId"`
	SubjectID     string         `json:"subjectId,omitempty"`
	UnitPrice     int64          `json:"unitPrice"`
	Seats         int            `json:"seats"`
	Total         int64          `json:"total"`
	Locked        bool           `json:"locked"`
	LockExpiresAt *time.Time     `json:"lockExpiresAt,omitempty"`
	Source        string         `json:"source"`
	Breakdown     pricing.Result `json:"breakdown"`
}

// Quote returns the unit price a subject sees for a trip at now. With a
// subject and countdown enabled the price is frozen until the lock expires.
func (s PriceLockService) Quote(ctx context.Context, tripID int64, subjectID string, seats int, now time.Time) (Quote, error) {
	if seats == 0 {
		seats = 1
	}
	if seats < 0 {
		return Quote{}, domain.ValidationError{Field: "seats", Msg: "must be positive"}
	}
	subjectID = strings.TrimSpace(subjectID)
	if len(subjectID) > 64 {
		return Quote{}, domain.ValidationError{Field: "subjectId", Msg: "at most 64 characters"}
	}

	trip, err := s.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return Quote{}, err
	}

	cfg, res, ok := s.price(ctx, trip, now)
	q := Quote{TripID: trip.ID, SubjectID: subjectID, Seats: seats, Breakdown: res}
	if !ok {
		return s.finish(q, res.Price, QuoteBase, nil), nil
	}
	if subjectID == "" || !cfg.CountdownEnabled || cfg.CountdownDuration() <= 0 {
		return s.finish(q, res.Price, QuoteUnlocked, nil), nil
	}

	price, source := res.Price, QuoteFresh
	prev, err := s.Locks.GetLock(ctx, trip.ID, subjectID)
	switch {
	case err == nil && prev.ActiveAt(now):
		return s.finish(q, prev.Price, QuoteLocked, &prev), nil
	case err == nil:
		price, source = repriceExpired(prev, res, cfg), QuoteRepriced
	case domain.IsNotFound(err):
	default:
		utils.LogWarn(s.RequestID, "pricing", "quote", "price lock read failed, serving unlocked price",
			zap.Int64("trip_id", trip.ID), zap.Error(err))
		return s.finish(q, res.Price, QuoteUnlocked, nil), nil
	}

	stored, err := s.Locks.AcquireLock(ctx, models.PriceLock{
		TripID:    trip.ID,
		SubjectID: subjectID,
		Price:     price,
		LockedAt:  now,
		ExpiresAt: now.Add(cfg.CountdownDuration()),
	})
	if err != nil {
		utils.LogWarn(s.RequestID, "pricing", "quote", "price lock write failed, serving unlocked price",
			zap.Int64("trip_id", trip.ID), zap.Error(err))
		return s.finish(q, price, QuoteUnlocked, nil), nil
	}
	if stored.Price != price {
		// another request for the same subject won the race
		source = QuoteLocked
	}
	return s.finish(q, stored.Price, source, &stored), nil
}

// repriceExpired bumps the fresh price once and never goes below the
// expired lock. The ceiling still wins.
func repriceExpired(prev models.PriceLock, res pricing.Result, cfg pricing.Config) int64 {
	price := res.Price + cfg.CountdownPriceIncrease
	if price < prev.Price {
		price = prev.Price
	}
	if price > res.Ceiling {
		price = res.Ceiling
	}
	return price
}

func (s PriceLockService) finish(q Quote, unit int64, source string, lock *models.PriceLock) Quote {
	q.UnitPrice = unit
	q.Total = unit * int64(q.Seats)
	q.Source = source
	if lock != nil {
		exp := lock.ExpiresAt
		q.Locked = true
		q.LockExpiresAt = &exp
	}
	s.Metrics.QuoteServed(source)
	return q
}

// CurrentPrice runs the engine for trip at now. ok is false when the
// agency config is missing or invalid and the base price is returned.
func (s PriceLockService) CurrentPrice(ctx context.Context, trip models.ScheduledTrip, now time.Time) (pricing.Result, bool) {
	_, res, ok := s.price(ctx, trip, now)
	return res, ok
}

func (s PriceLockService) price(ctx context.Context, trip models.ScheduledTrip, now time.Time) (pricing.Config, pricing.Result, bool) {
	cfg, err := s.config(ctx, trip.AgencyID)
	if err != nil {
		utils.LogWarn(s.RequestID, "pricing", "config", "falling back to base price",
			zap.Int64("agency_id", trip.AgencyID), zap.Error(err))
		base := pricing.Result{BasePrice: trip.BasePrice, Price: trip.BasePrice, Ceiling: trip.BasePrice}
		return pricing.Config{}, base, false
	}
	snap := s.snapshot(ctx, trip, cfg, now)
	return cfg, s.Engine.Price(snap, cfg), true
}

func (s PriceLockService) config(ctx context.Context, agencyID int64) (pricing.Config, error) {
	if s.Configs == nil {
		return pricing.Config{}, domain.ConfigurationError{Msg: "no pricing config store"}
	}
	cfg, err := s.Configs.GetPricingConfig(ctx, agencyID)
	if err != nil {
		if domain.IsNotFound(err) {
			return cfg, domain.ConfigurationError{Msg: fmt.Sprintf("agency %d has no pricing config", agencyID), Err: err}
		}
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, domain.ConfigurationError{Msg: fmt.Sprintf("pricing config of agency %d is invalid", agencyID), Err: err}
	}
	return cfg, nil
}

// snapshot gathers engine inputs. An input that cannot be read disables
// the factors depending on it instead of failing the quote.
func (s PriceLockService) snapshot(ctx context.Context, trip models.ScheduledTrip, cfg pricing.Config, now time.Time) pricing.Snapshot {
	snap := pricing.Snapshot{
		BasePrice:   trip.BasePrice,
		TotalSeats:  trip.TotalSeats,
		DepartureAt: trip.DepartureAt,
		Now:         now,
	}
	if !cfg.Enabled {
		return snap
	}

	occ, occErr := s.Inventory.Occupancy(ctx, trip.ID)
	if occErr != nil {
		s.warnInput("occupancy", trip.ID, occErr)
		snap.Unavailable = append(snap.Unavailable, pricing.FactorFillRate, pricing.FactorTimeProximity, pricing.FactorCompetition)
	} else {
		snap.ReservedSeats = occ.ReservedCount
	}

	if cfg.VelocityEnabled {
		n, err := s.Inventory.CountReservedSince(ctx, trip.ID, now.Add(-pricing.VelocityWindow))
		if err != nil {
			s.warnInput("velocity", trip.ID, err)
			snap.Unavailable = append(snap.Unavailable, pricing.FactorVelocity)
		}
		snap.RecentSales = n
	}

	if cfg.CompetitionEnabled && occErr == nil {
		siblings, err := s.Trips.ListSiblingOccupancy(ctx, trip)
		if err != nil {
			s.warnInput("siblings", trip.ID, err)
			snap.Unavailable = append(snap.Unavailable, pricing.FactorCompetition)
		}
		for _, sib := range siblings {
			snap.SiblingOccupancy = append(snap.SiblingOccupancy, sib.Percent())
		}
	}
	return snap
}

func (s PriceLockService) warnInput(input string, tripID int64, err error) {
	utils.LogWarn(s.RequestID, "pricing", "snapshot", "pricing input unavailable",
		zap.String("input", input), zap.Int64("trip_id", tripID), zap.Error(err))
}

// ResolveUnitPrice decides the unit price of a booking. An override is
// honoured when it matches the subject's unexpired lock; a stale override
// is replaced by a fresh quote. Without a subject no lock can back the
// override, so it must lie between the current engine price and the ceiling.
func (s PriceLockService) ResolveUnitPrice(ctx context.Context, trip models.ScheduledTrip, subjectID string, override *int64, now time.Time) (int64, error) {
	subjectID = strings.TrimSpace(subjectID)

	if subjectID != "" {
		if override != nil {
			lock, err := s.Locks.GetLock(ctx, trip.ID, subjectID)
			if err == nil && lock.ActiveAt(now) && lock.Price == *override {
				return *override, nil
			}
			utils.LogEvent(s.RequestID, "pricing", "resolve_price", "override not backed by an active lock, re-quoting",
				zap.Int64("trip_id", trip.ID), zap.Int64("override", *override))
		}
		q, err := s.Quote(ctx, trip.ID, subjectID, 1, now)
		if err != nil {
			return 0, err
		}
		return q.UnitPrice, nil
	}

	res, _ := s.CurrentPrice(ctx, trip, now)
	if override == nil {
		return res.Price, nil
	}
	ceiling := res.Ceiling
	if ceiling < res.Price {
		ceiling = res.Price
	}
	if *override < res.Price || *override > ceiling {
		return 0, domain.ValidationError{
			Field: "unitPriceOverride",
			Msg:   fmt.Sprintf("must be between %d and %d", res.Price, ceiling),
		}
	}
	return *override, nil
}
