// Package ratelimit counts attempts per opaque key in sliding windows over a
// shared cache. Counters slide from the most recent hit: every increment
// refreshes the window, so remaining-window queries always have expiry
// metadata to report.
//
// # Key layout
//
// The limiter prepends "<prefix>:ratelimit:" to every key it touches, which
// keeps counters disjoint from the secret keyspace even though flow-level key
// names (otp:<email>, verification:<id>, magic_link:<email>) are shared with
// secret storage. Validation-attempt counters get their own attempts:<flow>:
// family on top of that.
//
// # What this package must NOT do
//
//   - Know what a key represents. Emails, user IDs, and flows only appear in
//     the pure key-derivation helpers; counting is identifier-agnostic.
//   - Roll counters back. A consumed attempt stays consumed whatever the
//     outcome of the gated operation.
package ratelimit
