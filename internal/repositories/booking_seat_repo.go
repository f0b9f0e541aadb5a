package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	intconfig "github.com/biendoubrian23/YENDI-sub000/internal/config"
	intdb "github.com/biendoubrian23/YENDI-sub000/internal/db"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
)

// SeatReservationRepo is the seat inventory. Uniqueness of live seats is
// enforced by the uq_trip_active_seat index, not by application locks.
type SeatReservationRepo struct {
	DB *sql.DB
}

func (r SeatReservationRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const reservationColumns = `s.id, s.trip_id, s.seat_number, s.status, s.passenger_name,
	COALESCE(s.passenger_phone,''), s.booking_group_id, s.price, s.created_at, s.cancelled_at,
	g.purchaser_phone`

const reservationFrom = ` FROM seat_reservations s JOIN booking_groups g ON g.id = s.booking_group_id`

func scanReservation(row rowScanner) (models.SeatReservation, error) {
	var (
		res       models.SeatReservation
		price     sql.NullInt64
		cancelled sql.NullTime
	)
	err := row.Scan(&res.ID, &res.TripID, &res.SeatNumber, &res.Status, &res.PassengerName,
		&res.PassengerPhone, &res.BookingGroupID, &price, &res.CreatedAt, &cancelled,
		&res.PurchaserPhone)
	if err != nil {
		return res, err
	}
	if price.Valid {
		res.Price = price.Int64
	}
	if cancelled.Valid {
		t := cancelled.Time
		res.CancelledAt = &t
	}
	return res, nil
}

// TryReserve inserts all reservations in one statement through q, which
// must be the caller's transaction. A unique-index violation becomes a
// SeatConflictError listing the seats held by someone else.
func (r SeatReservationRepo) TryReserve(ctx context.Context, q intdb.Querier, tripID int64, rs []models.SeatReservation) error {
	if len(rs) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*9)
	seats := make([]int, 0, len(rs))
	for _, res := range rs {
		placeholders = append(placeholders, "(?,?,?,?,?,?,?,?,?)")
		args = append(args, res.ID, tripID, res.SeatNumber, string(models.ReservationReserved),
			res.PassengerName, intdb.NullIfEmpty(res.PassengerPhone), res.BookingGroupID, res.Price, res.CreatedAt)
		seats = append(seats, res.SeatNumber)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO seat_reservations
			(id, trip_id, seat_number, status, passenger_name, passenger_phone, booking_group_id, price, created_at)
		VALUES `+strings.Join(placeholders, ","), args...)
	if err == nil {
		return nil
	}
	if !intdb.IsDuplicateKey(err) {
		return fmt.Errorf("insert seat reservations: %w", err)
	}

	taken, lookupErr := r.takenSeats(ctx, q, tripID, seats)
	if lookupErr != nil || len(taken) == 0 {
		taken = seats
	}
	return domain.SeatConflictError{TripID: tripID, Seats: taken}
}

func (r SeatReservationRepo) takenSeats(ctx context.Context, q intdb.Querier, tripID int64, seats []int) ([]int, error) {
	in := make([]string, len(seats))
	args := []any{tripID}
	for i, s := range seats {
		in[i] = "?"
		args = append(args, s)
	}
	rows, err := q.QueryContext(ctx, `
		SELECT seat_number FROM seat_reservations
		WHERE trip_id=? AND status <> 'cancelled' AND seat_number IN (`+strings.Join(in, ",")+`)
		LOCK IN SHARE MODE`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return out, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CancelSeat releases the live reservation of (tripID, seat) and returns
// the status it had. Cancelling an already free seat is a no-op that
// reports ReservationCancelled.
func (r SeatReservationRepo) CancelSeat(ctx context.Context, tripID int64, seat int, now time.Time) (models.ReservationStatus, error) {
	var prev models.ReservationStatus
	err := intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `
			SELECT status FROM seat_reservations
			WHERE trip_id=? AND active_seat=?
			FOR UPDATE`, tripID, seat).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			prev = models.ReservationCancelled
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock seat: %w", err)
		}
		prev = models.ReservationStatus(status)
		if _, err := tx.ExecContext(ctx, `
			UPDATE seat_reservations SET status='cancelled', cancelled_at=?
			WHERE trip_id=? AND active_seat=?`, now, tripID, seat); err != nil {
			return fmt.Errorf("cancel seat: %w", err)
		}
		return nil
	})
	return prev, err
}

// Occupancy lists the seats currently held on a trip.
func (r SeatReservationRepo) Occupancy(ctx context.Context, tripID int64) (models.Occupancy, error) {
	db := r.db()
	occ := models.Occupancy{TripID: tripID, SeatNumbers: []int{}}

	err := db.QueryRowContext(ctx, `SELECT total_seats FROM scheduled_trips WHERE id=?`, tripID).Scan(&occ.TotalSeats)
	if errors.Is(err, sql.ErrNoRows) {
		return occ, domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return occ, fmt.Errorf("occupancy: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT seat_number FROM seat_reservations
		WHERE trip_id=? AND status <> 'cancelled'
		ORDER BY seat_number`, tripID)
	if err != nil {
		return occ, fmt.Errorf("occupancy seats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return occ, err
		}
		occ.SeatNumbers = append(occ.SeatNumbers, n)
	}
	sort.Ints(occ.SeatNumbers)
	occ.ReservedCount = len(occ.SeatNumbers)
	return occ, rows.Err()
}

// CountReservedSince counts live reservations created at or after since.
// Cancelled sales are left out: their seat is back on sale and no longer
// reflects demand.
func (r SeatReservationRepo) CountReservedSince(ctx context.Context, tripID int64, since time.Time) (int, error) {
	var n int
	err := r.db().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM seat_reservations
		WHERE trip_id=? AND status <> 'cancelled' AND created_at >= ?`, tripID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent reservations: %w", err)
	}
	return n, nil
}

func (r SeatReservationRepo) GetReservation(ctx context.Context, id string) (models.SeatReservation, error) {
	return r.getReservation(ctx, r.db(), id, "")
}

func (r SeatReservationRepo) getReservation(ctx context.Context, q intdb.Querier, id, lock string) (models.SeatReservation, error) {
	if strings.TrimSpace(id) == "" {
		return models.SeatReservation{}, domain.ValidationError{Field: "reservationId", Msg: "required"}
	}
	row := q.QueryRowContext(ctx, `SELECT `+reservationColumns+reservationFrom+` WHERE s.id=? `+lock, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return res, domain.NotFoundError{Resource: "reservation", Err: err}
	}
	if err != nil {
		return res, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// ListActiveByTrip returns live reservations ordered by seat.
func (r SeatReservationRepo) ListActiveByTrip(ctx context.Context, tripID int64) ([]models.SeatReservation, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT `+reservationColumns+reservationFrom+`
		WHERE s.trip_id=? AND s.status <> 'cancelled'
		ORDER BY s.seat_number`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := []models.SeatReservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ConfirmGroup moves every reserved seat of a group to confirmed and
// returns how many changed. Confirming twice changes nothing.
func (r SeatReservationRepo) ConfirmGroup(ctx context.Context, groupID string) (int, error) {
	db := r.db()
	res, err := db.ExecContext(ctx, `
		UPDATE seat_reservations SET status='confirmed'
		WHERE booking_group_id=? AND status='reserved'`, groupID)
	if err != nil {
		return 0, fmt.Errorf("confirm group: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var one int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM booking_groups WHERE id=?`, groupID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.NotFoundError{Resource: "booking group", Err: err}
		}
		if err != nil {
			return 0, fmt.Errorf("confirm group: %w", err)
		}
	}
	return int(n), nil
}
