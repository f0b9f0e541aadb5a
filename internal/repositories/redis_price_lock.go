package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/domain/models"
)

// acquireScript sets the lock hash unless it holds an expiry later than the
// new lock's start. It returns {price, locked_at_ms, expires_at_ms} of the
// lock that ends up stored.
var acquireScript = redis.NewScript(`
local exp = redis.call('HGET', KEYS[1], 'expires_at')
if exp and tonumber(exp) > tonumber(ARGV[2]) then
  return redis.call('HMGET', KEYS[1], 'price', 'locked_at', 'expires_at')
end
redis.call('HSET', KEYS[1], 'price', ARGV[1], 'locked_at', ARGV[2], 'expires_at', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {ARGV[1], ARGV[2], ARGV[3]}
`)

// RedisPriceLockStore keeps price locks in Redis hashes. Keys outlive the
// lock by Retention so an expired lock can still floor the next quote.
type RedisPriceLockStore struct {
	Client    *redis.Client
	Retention time.Duration
}

func priceLockKey(tripID int64, subjectID string) string {
	return fmt.Sprintf("pricelock:%d:%s", tripID, subjectID)
}

func (s RedisPriceLockStore) GetLock(ctx context.Context, tripID int64, subjectID string) (models.PriceLock, error) {
	vals, err := s.Client.HMGet(ctx, priceLockKey(tripID, subjectID), "price", "locked_at", "expires_at").Result()
	if err != nil {
		return models.PriceLock{}, fmt.Errorf("get price lock: %w", err)
	}
	if len(vals) == 0 || vals[0] == nil {
		return models.PriceLock{}, domain.NotFoundError{Resource: "price lock", Err: redis.Nil}
	}
	return decodeRedisLock(tripID, subjectID, vals)
}

func (s RedisPriceLockStore) AcquireLock(ctx context.Context, lock models.PriceLock) (models.PriceLock, error) {
	ttl := lock.ExpiresAt.Sub(lock.LockedAt) + s.Retention
	if ttl <= 0 {
		ttl = time.Minute
	}
	out, err := acquireScript.Run(ctx, s.Client, []string{priceLockKey(lock.TripID, lock.SubjectID)},
		lock.Price, lock.LockedAt.UnixMilli(), lock.ExpiresAt.UnixMilli(), ttl.Milliseconds()).Slice()
	if err != nil {
		return models.PriceLock{}, fmt.Errorf("acquire price lock: %w", err)
	}
	return decodeRedisLock(lock.TripID, lock.SubjectID, out)
}

var errMalformedLock = errors.New("malformed price lock")

func decodeRedisLock(tripID int64, subjectID string, vals []any) (models.PriceLock, error) {
	if len(vals) != 3 {
		return models.PriceLock{}, errMalformedLock
	}
	nums := make([]int64, 3)
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			return models.PriceLock{}, errMalformedLock
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return models.PriceLock{}, fmt.Errorf("%w: %v", errMalformedLock, err)
		}
		nums[i] = n
	}
	return models.PriceLock{
		TripID:    tripID,
		SubjectID: subjectID,
		Price:     nums[0],
		LockedAt:  time.UnixMilli(nums[1]).UTC(),
		ExpiresAt: time.UnixMilli(nums[2]).UTC(),
	}, nil
}
