package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "github.com/biendoubrian23/YENDI-sub000/internal/config"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
)

type PriceLockRepo struct {
	DB *sql.DB
}

func (r PriceLockRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r PriceLockRepo) GetLock(ctx context.Context, tripID int64, subjectID string) (models.PriceLock, error) {
	l := models.PriceLock{TripID: tripID, SubjectID: subjectID}
	err := r.db().QueryRowContext(ctx, `
		SELECT price, locked_at, expires_at FROM price_locks
		WHERE trip_id=? AND subject_id=?`, tripID, subjectID).Scan(&l.Price, &l.LockedAt, &l.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return l, domain.NotFoundError{Resource: "price lock", Err: err}
	}
	if err != nil {
		return l, fmt.Errorf("get price lock: %w", err)
	}
	return l, nil
}

// AcquireLock stores lock unless the key already holds a lock that is
// still active at lock.LockedAt, then returns whatever the key holds.
// Racing callers therefore all read back the same winner.
func (r PriceLockRepo) AcquireLock(ctx context.Context, lock models.PriceLock) (models.PriceLock, error) {
	// expires_at is assigned last so the IF conditions see the old value.
	_, err := r.db().ExecContext(ctx, `
		INSERT INTO price_locks (trip_id, subject_id, price, locked_at, expires_at)
		VALUES (?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
			price = IF(expires_at <= VALUES(locked_at), VALUES(price), price),
			locked_at = IF(expires_at <= VALUES(locked_at), VALUES(locked_at), locked_at),
			expires_at = IF(expires_at <= VALUES(locked_at), VALUES(expires_at), expires_at)`,
		lock.TripID, lock.SubjectID, lock.Price, lock.LockedAt, lock.ExpiresAt)
	if err != nil {
		return models.PriceLock{}, fmt.Errorf("acquire price lock: %w", err)
	}
	return r.GetLock(ctx, lock.TripID, lock.SubjectID)
}

// DeleteExpiredBefore drops locks that expired before cutoff. Expiry is
// evaluated lazily on read; this only keeps the table small.
func (r PriceLockRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db().ExecContext(ctx, `DELETE FROM price_locks WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge price locks: %w", err)
	}
	return res.RowsAffected()
}
