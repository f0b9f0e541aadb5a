package repositories

import (
	"context"
	"database/sql"
	"sort"

	"go.uber.org/zap"

	intconfig "github.com/biendoubrian23/YENDI-sub000/internal/config"
	intdb "github.com/biendoubrian23/YENDI-sub000/internal/db"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
	"github.com/biendoubrian23/YENDI-sub000/internal/utils"
)

// SQLStore bundles the MySQL repositories behind the interfaces the
// services consume.
type SQLStore struct {
	DB *sql.DB

	TripsRepository
	SeatReservationRepo
	BookingGroupRepo
	RefundRepo
	PricingConfigRepo
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		DB:                  db,
		TripsRepository:     TripsRepository{DB: db},
		SeatReservationRepo: SeatReservationRepo{DB: db},
		BookingGroupRepo:    BookingGroupRepo{DB: db},
		RefundRepo:          RefundRepo{DB: db},
		PricingConfigRepo:   PricingConfigRepo{DB: db},
	}
}

func (s *SQLStore) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

// CreateGroup persists a booking group and all of its reservations
// atomically. The trip row is share-locked so a concurrent trip
// cancellation cannot interleave with the insert. Seats are inserted in
// seat order; a transaction chosen as deadlock victim or timed out on a
// seat lock is retried once and then reported as a seat conflict.
func (s *SQLStore) CreateGroup(ctx context.Context, g models.BookingGroup) error {
	g.Reservations = sortedBySeat(g.Reservations)

	var err error
	for attempt := 0; attempt < createGroupAttempts; attempt++ {
		err = s.createGroup(ctx, g)
		if !intdb.IsLockContention(err) {
			return err
		}
	}
	return s.contendedSeats(ctx, g, err)
}

const createGroupAttempts = 2

func (s *SQLStore) createGroup(ctx context.Context, g models.BookingGroup) error {
	return intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		trip, err := s.TripsRepository.getTrip(ctx, tx, g.TripID, "LOCK IN SHARE MODE")
		if err != nil {
			return err
		}
		if ok, reason := trip.Bookable(g.CreatedAt); !ok {
			return domain.TripNotBookableError{TripID: trip.ID, Reason: reason}
		}
		if bad := invalidSeats(trip, g.Reservations); len(bad) > 0 {
			return domain.InvalidSeatError{TripID: trip.ID, Seats: bad, TotalSeats: trip.TotalSeats}
		}
		if err := s.BookingGroupRepo.Insert(ctx, tx, g); err != nil {
			return err
		}
		return s.SeatReservationRepo.TryReserve(ctx, tx, trip.ID, g.Reservations)
	})
}

// contendedSeats turns repeated lock contention into a SeatConflictError.
// The seats now held by others are read outside any transaction; when the
// read fails or finds none, every requested seat is reported.
func (s *SQLStore) contendedSeats(ctx context.Context, g models.BookingGroup, cause error) error {
	seats := make([]int, 0, len(g.Reservations))
	for _, r := range g.Reservations {
		seats = append(seats, r.SeatNumber)
	}
	taken, err := s.SeatReservationRepo.takenSeats(ctx, s.db(), g.TripID, seats)
	if err != nil || len(taken) == 0 {
		taken = seats
	}
	utils.LogWarn("", "booking", "create_group", "seat lock contention reported as conflict",
		zap.Int64("trip_id", g.TripID), zap.Ints("seats", taken), zap.Error(cause))
	return domain.SeatConflictError{TripID: g.TripID, Seats: taken}
}

func sortedBySeat(rs []models.SeatReservation) []models.SeatReservation {
	out := append([]models.SeatReservation(nil), rs...)
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out
}

// CancelTrip marks the trip cancelled under an exclusive row lock and
// returns the reservations still holding seats.
func (s *SQLStore) CancelTrip(ctx context.Context, tripID int64) ([]models.SeatReservation, error) {
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		if _, err := s.TripsRepository.getTrip(ctx, tx, tripID, "FOR UPDATE"); err != nil {
			return err
		}
		return s.TripsRepository.updateStatus(ctx, tx, tripID, models.TripCancelled)
	})
	if err != nil {
		return nil, err
	}
	return s.SeatReservationRepo.ListActiveByTrip(ctx, tripID)
}

func invalidSeats(trip models.ScheduledTrip, rs []models.SeatReservation) []int {
	var bad []int
	for _, r := range rs {
		if !trip.ValidSeat(r.SeatNumber) {
			bad = append(bad, r.SeatNumber)
		}
	}
	return bad
}
