package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/planora/emailauth/cache"
)

const limiterNamespace = "ratelimit"

// Limiter is a generic sliding-window attempt counter. Each key has an
// independent counter and window; exhausting one key never affects another.
type Limiter struct {
	store  cache.Store
	prefix string
}

// NewLimiter builds a Limiter over store. prefix is the shared cache
// namespace; the limiter adds its own sub-namespace below it.
func NewLimiter(store cache.Store, prefix string) *Limiter {
	if prefix == "" {
		prefix = "email_auth"
	}
	return &Limiter{store: store, prefix: prefix + ":" + limiterNamespace}
}

func (l *Limiter) key(k string) string {
	return l.prefix + ":" + k
}

// Attempt is the combined gate-and-record operation: it refuses without
// incrementing once the key has reached maxAttempts, otherwise it counts one
// attempt and allows. Exactly maxAttempts calls succeed per window; with
// maxAttempts zero every call is refused.
//
// When the backend implements [cache.ConditionalIncrementer] the check and
// increment are a single atomic unit and the gate holds under concurrent
// callers. Otherwise Attempt degrades to a read-then-increment pair, which
// can overshoot by the number of in-flight racers and is only adequate for
// low-contention single-process caches.
func (l *Limiter) Attempt(ctx context.Context, key string, maxAttempts int, decay time.Duration) (bool, error) {
	if maxAttempts < 0 {
		maxAttempts = 0
	}

	if ci, ok := l.store.(cache.ConditionalIncrementer); ok {
		_, allowed, err := ci.IncrementBelow(ctx, l.key(key), int64(maxAttempts), decay)
		return allowed, err
	}

	blocked, err := l.TooManyAttempts(ctx, key, maxAttempts)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}
	if _, err := l.Hit(ctx, key, decay); err != nil {
		return false, err
	}
	return true, nil
}

// TooManyAttempts reports whether the counter has reached maxAttempts.
func (l *Limiter) TooManyAttempts(ctx context.Context, key string, maxAttempts int) (bool, error) {
	count, err := l.Attempts(ctx, key)
	if err != nil {
		return false, err
	}
	return count >= int64(maxAttempts), nil
}

// Hit unconditionally counts one attempt and restarts the key's decay
// window. Returns the new count.
func (l *Limiter) Hit(ctx context.Context, key string, decay time.Duration) (int64, error) {
	return l.store.Increment(ctx, l.key(key), decay)
}

// Attempts returns the current count, zero for absent or expired keys. A
// stored value that is not a non-negative integer is reported as a backend
// fault: reading it as zero would re-arm an exhausted budget.
func (l *Limiter) Attempts(ctx context.Context, key string) (int64, error) {
	raw, ok, err := l.store.Get(ctx, l.key(key))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("%w: corrupt counter value %q", cache.ErrUnavailable, raw)
	}
	return count, nil
}

// Clear deletes the counter. Idempotent; a subsequent Attempts reads zero.
func (l *Limiter) Clear(ctx context.Context, key string) error {
	return l.store.Forget(ctx, l.key(key))
}

// AvailableIn returns the time until the key's window resets, zero when the
// key is absent.
func (l *Limiter) AvailableIn(ctx context.Context, key string) (time.Duration, error) {
	return l.store.TTL(ctx, l.key(key))
}
