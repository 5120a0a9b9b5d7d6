package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every backend failure returned by a [Store]. Callers
// match it with errors.Is to distinguish infrastructure faults from absent
// keys, which are ordinary (zero-value, nil-error) results.
var ErrUnavailable = errors.New("cache backend unavailable")

// Store is the shared mutable resource under the auth core: secrets and rate
// limit counters both live here, in namespaces the callers keep disjoint.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent or
	// expired; that is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put stores value under key with the given TTL. A non-positive TTL
	// deletes the key instead, making the value immediately unavailable.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Forget deletes the key. Deleting an absent key is not an error.
	Forget(ctx context.Context, key string) error

	// Has reports whether the key currently exists.
	Has(ctx context.Context, key string) (bool, error)

	// Increment atomically increments the integer counter at key, creating
	// it at 1 if absent, and resets its expiry to ttl from now. Returns the
	// new count.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// TTL returns the remaining lifetime of key, or 0 when the key is
	// absent or carries no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// ConditionalIncrementer is an optional extension of [Store]: a combined
// check-and-increment that never increments past limit. allowed reports
// whether the increment happened; count is the counter value after the call.
// Backends implementing this atomically let rate limit gates hold under
// concurrent callers on the same key.
type ConditionalIncrementer interface {
	IncrementBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (count int64, allowed bool, err error)
}
