package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "github.com/biendoubrian23/YENDI-sub000/internal/config"
	intdb "github.com/biendoubrian23/YENDI-sub000/internal/db"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
)

type BookingGroupRepo struct {
	DB *sql.DB
}

func (r BookingGroupRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Insert writes the group header through q; members are inserted by
// SeatReservationRepo.TryReserve in the same transaction.
func (r BookingGroupRepo) Insert(ctx context.Context, q intdb.Querier, g models.BookingGroup) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO booking_groups
			(id, trip_id, purchaser_name, purchaser_phone, purchaser_email, payment_method, unit_price, total_amount, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		g.ID, g.TripID, g.PurchaserName, g.PurchaserPhone, intdb.NullIfEmpty(g.PurchaserEmail),
		g.PaymentMethod, g.UnitPrice, g.TotalAmount, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking group: %w", err)
	}
	return nil
}

// GetGroup loads a booking group with all of its reservations, cancelled ones included.
func (r BookingGroupRepo) GetGroup(ctx context.Context, id string) (models.BookingGroup, error) {
	db := r.db()
	var (
		g     models.BookingGroup
		email sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, trip_id, purchaser_name, purchaser_phone, purchaser_email, payment_method, unit_price, total_amount, created_at
		FROM booking_groups WHERE id=?`, id).
		Scan(&g.ID, &g.TripID, &g.PurchaserName, &g.PurchaserPhone, &email, &g.PaymentMethod, &g.UnitPrice, &g.TotalAmount, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, domain.NotFoundError{Resource: "booking group", Err: err}
	}
	if err != nil {
		return g, fmt.Errorf("get booking group: %w", err)
	}
	g.PurchaserEmail = email.String

	rows, err := db.QueryContext(ctx, `SELECT `+reservationColumns+reservationFrom+`
		WHERE s.booking_group_id=? ORDER BY s.seat_number`, id)
	if err != nil {
		return g, fmt.Errorf("list group reservations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return g, err
		}
		g.Reservations = append(g.Reservations, res)
	}
	return g, rows.Err()
}
