// Package cache defines the key-value store contract the email auth core is
// layered over, plus the Redis implementation used in production.
//
// # Contract
//
// [Store] is a minimal TTL-aware cache: Get/Put/Forget/Has plus an atomic
// Increment used for rate limit counters. Put with a non-positive TTL deletes
// the key, so a zero-TTL secret is immediately invalid rather than immortal.
// Increment refreshes the key's expiry on every call (sliding window), which
// also guarantees expiry metadata is always present for remaining-window
// queries.
//
// [ConditionalIncrementer] is an optional capability: backends with scripting
// support expose a check-and-increment that cannot let concurrent callers
// race past a limit. [RedisStore] implements it with a Lua script.
//
// # What this package must NOT do
//
//   - Know anything about emails, tokens, or rate limit policy. Keys are
//     opaque strings; namespacing belongs to the callers.
//   - Surface backend errors raw: every failure wraps [ErrUnavailable] so
//     callers can separate infrastructure faults from domain outcomes.
package cache
