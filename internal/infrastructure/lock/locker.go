package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock stays held by someone else for
// the whole wait budget.
var ErrNotAcquired = errors.New("lock not acquired within wait budget")

// pollInterval is how often a blocked Acquire re-attempts SETNX.
const pollInterval = 100 * time.Millisecond

// releaseScript deletes the key only when the stored token matches the
// caller's, so a lock that expired and was re-acquired by another owner is
// never released by the first.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// Locker acquires named advisory locks. Correctness never depends on these
// locks; they exist to shed contention before the row locks.
type Locker interface {
	// Acquire blocks up to wait for the named lock, holding it for at most
	// ttl. Returns ErrNotAcquired on wait exhaustion.
	Acquire(ctx context.Context, key string, wait, ttl time.Duration) (Lock, error)
}

// Lock is a held advisory lock. Release is safe to call on all exit paths;
// releasing a lock that already expired is a no-op.
type Lock interface {
	Release(ctx context.Context) error
}

// RedisLocker implements Locker on a shared Redis instance using SETNX
// with a per-acquisition owner token.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire implements Locker.Acquire.
func (l *RedisLocker) Acquire(ctx context.Context, key string, wait, ttl time.Duration) (Lock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return &redisLock{client: l.client, key: key, token: token}, nil
		}

		if time.Now().Add(pollInterval).After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, fmt.Errorf("lock wait cancelled for %s: %w", key, ctx.Err())
		}
	}
}

type redisLock struct {
	client *redis.Client
	key    string
	token  string
}

// Release drops the lock if this holder still owns it.
func (lk *redisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock %s: %w", lk.key, err)
	}
	return nil
}

// ProductKey names the per-product creation/release mutex.
func ProductKey(productID int64) string {
	return fmt.Sprintf("lock:product:%d", productID)
}

// HoldKey names the per-hold release mutex.
func HoldKey(holdID int64) string {
	return fmt.Sprintf("lock:hold:%d", holdID)
}
