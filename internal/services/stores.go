package services

import (
	"context"
	"time"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/pricing"
	"github.com/biendoubrian23/YENDI-sub000/internal/repositories"
)

// Storage contracts consumed by the services. repositories.SQLStore and
// repositories.MemoryStore implement all of them.

type TripStore interface {
	GetTrip(ctx context.Context, id int64) (models.ScheduledTrip, error)
	ListSiblingOccupancy(ctx context.Context, trip models.ScheduledTrip) ([]models.TripOccupancy, error)
}

type InventoryStore interface {
	Occupancy(ctx context.Context, tripID int64) (models.Occupancy, error)
	CountReservedSince(ctx context.Context, tripID int64, since time.Time) (int, error)
	GetReservation(ctx context.Context, id string) (models.SeatReservation, error)
}

type BookingStore interface {
	CreateGroup(ctx context.Context, g models.BookingGroup) error
	GetGroup(ctx context.Context, id string) (models.BookingGroup, error)
	ConfirmGroup(ctx context.Context, groupID string) (int, error)
}

type RefundStore interface {
	CancelWithRefund(ctx context.Context, reservationID string, compute repositories.RefundFunc) (models.Refund, bool, error)
	GetRefund(ctx context.Context, reservationID string) (models.Refund, error)
	RefundBalance(ctx context.Context, phone string) (int64, error)
	CancelTrip(ctx context.Context, tripID int64) ([]models.SeatReservation, error)
}

type PricingConfigStore interface {
	GetPricingConfig(ctx context.Context, agencyID int64) (pricing.Config, error)
	SavePricingConfig(ctx context.Context, agencyID int64, cfg pricing.Config) error
}

type PriceLockStore interface {
	GetLock(ctx context.Context, tripID int64, subjectID string) (models.PriceLock, error)
	AcquireLock(ctx context.Context, lock models.PriceLock) (models.PriceLock, error)
}

var (
	_ TripStore          = (*repositories.SQLStore)(nil)
	_ InventoryStore     = (*repositories.SQLStore)(nil)
	_ BookingStore       = (*repositories.SQLStore)(nil)
	_ RefundStore        = (*repositories.SQLStore)(nil)
	_ PricingConfigStore = (*repositories.SQLStore)(nil)
	_ PriceLockStore     = repositories.PriceLockRepo{}
	_ PriceLockStore     = repositories.RedisPriceLockStore{}

	_ TripStore          = (*repositories.MemoryStore)(nil)
	_ InventoryStore     = (*repositories.MemoryStore)(nil)
	_ BookingStore       = (*repositories.MemoryStore)(nil)
	_ RefundStore        = (*repositories.MemoryStore)(nil)
	_ PricingConfigStore = (*repositories.MemoryStore)(nil)
	_ PriceLockStore     = (*repositories.MemoryStore)(nil)
)
