package cache

import (
	"context"
	"time"
)

// Cache is the contract for the shared key/value layer.
type Cache interface {
	// Get reads key into dest. found=false means cache miss and dest is
	// untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value under key with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys.
	Delete(ctx context.Context, keys ...string) error

	// IncrByIfExists atomically adds delta (negative to subtract) to an
	// integer counter, but only while the key is present. applied=false
	// means the key was absent and nothing was written. The existence
	// check and the write are a single operation on the backing store,
	// so an expired counter is never resurrected without a TTL.
	IncrByIfExists(ctx context.Context, key string, delta int64) (int64, bool, error)

	// Expire resets the TTL on key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping verifies the connection.
	Ping(ctx context.Context) error
}
