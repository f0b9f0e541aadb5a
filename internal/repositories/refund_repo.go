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

// RefundFunc computes the refund for a reservation while its row is locked.
// Returning an error aborts the cancellation.
type RefundFunc func(res models.SeatReservation, trip models.ScheduledTrip) (models.Refund, error)

type RefundRepo struct {
	DB *sql.DB
}

func (r RefundRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// CancelWithRefund cancels a reservation, records its refund and credits
// the purchaser balance in one transaction. For a reservation that is
// already cancelled it returns the stored refund with applied=false.
func (r RefundRepo) CancelWithRefund(ctx context.Context, reservationID string, compute RefundFunc) (models.Refund, bool, error) {
	var (
		refund  models.Refund
		applied bool
	)
	err := intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		res, err := SeatReservationRepo{}.getReservation(ctx, tx, reservationID, "FOR UPDATE")
		if err != nil {
			return err
		}
		if res.Status == models.ReservationCancelled {
			refund, err = r.getRefund(ctx, tx, reservationID)
			return err
		}

		trip, err := TripsRepository{}.getTrip(ctx, tx, res.TripID, "")
		if err != nil {
			return err
		}
		refund, err = compute(res, trip)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE seat_reservations SET status='cancelled', cancelled_at=?
			WHERE id=? AND status <> 'cancelled'`, refund.CreatedAt, reservationID); err != nil {
			return fmt.Errorf("cancel reservation: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO refunds
				(reservation_id, booking_group_id, purchaser_phone, percent, amount, original_price, agency_initiated, created_at)
			VALUES (?,?,?,?,?,?,?,?)`,
			refund.ReservationID, refund.BookingGroupID, refund.PurchaserPhone, refund.Percent,
			refund.Amount, refund.OriginalPrice, refund.AgencyInitiated, refund.CreatedAt); err != nil {
			return fmt.Errorf("insert refund: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO refund_balances (purchaser_phone, balance, updated_at)
			VALUES (?,?,?)
			ON DUPLICATE KEY UPDATE balance = balance + VALUES(balance), updated_at = VALUES(updated_at)`,
			refund.PurchaserPhone, refund.Amount, refund.CreatedAt); err != nil {
			return fmt.Errorf("credit refund balance: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return models.Refund{}, false, err
	}
	return refund, applied, nil
}

func (r RefundRepo) GetRefund(ctx context.Context, reservationID string) (models.Refund, error) {
	return r.getRefund(ctx, r.db(), reservationID)
}

func (r RefundRepo) getRefund(ctx context.Context, q intdb.Querier, reservationID string) (models.Refund, error) {
	var f models.Refund
	err := q.QueryRowContext(ctx, `
		SELECT reservation_id, booking_group_id, purchaser_phone, percent, amount, original_price, agency_initiated, created_at
		FROM refunds WHERE reservation_id=?`, reservationID).
		Scan(&f.ReservationID, &f.BookingGroupID, &f.PurchaserPhone, &f.Percent, &f.Amount, &f.OriginalPrice, &f.AgencyInitiated, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return f, domain.NotFoundError{Resource: "refund", Err: err}
	}
	if err != nil {
		return f, fmt.Errorf("get refund: %w", err)
	}
	return f, nil
}

// RefundBalance returns the accumulated credit of a purchaser; unknown
// phones have a zero balance.
func (r RefundRepo) RefundBalance(ctx context.Context, phone string) (int64, error) {
	var balance int64
	err := r.db().QueryRowContext(ctx, `SELECT balance FROM refund_balances WHERE purchaser_phone=?`, phone).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get refund balance: %w", err)
	}
	return balance, nil
}
