// Package emailauth implements the passwordless email authentication core
// behind the Planora marketplace: OTP login codes, email verification
// tokens, and magic-link password resets, over a Redis-backed cache.
//
// Three layers compose bottom-up. internal/token generates and validates
// ephemeral secrets, stored only as SHA-256 digests and compared in constant
// time. internal/ratelimit counts attempts per key in sliding windows. The
// [Service] in this package orchestrates both plus an [EmailSender] into the
// three flows, each with a send half and a verify half.
//
// Every flow method returns its domain outcome as a typed result
// ([SendResult] or [ValidationResult]) carrying an [ErrorKind]; the error
// return is reserved for infrastructure faults such as an unreachable cache.
// Wrong codes, expired tokens, rate limits, and unknown users are results,
// never errors.
//
// The package is request-scoped and stateless apart from the shared cache:
// Service methods are safe to call from multiple goroutines after
// construction through [Builder.Build].
//
// # Architecture boundaries
//
// emailauth is a library, not a server. HTTP controllers, user persistence,
// and the mail transport are callers' concerns, reached through the
// [UserProvider] and [EmailSender] interfaces (the mailer subpackage ships a
// SendGrid implementation of the latter).
//
// # What this package must NOT do
//
//   - Store a secret in plaintext, or let one validate twice.
//   - Read ambient configuration. The full surface is the [Config] struct
//     injected at build time.
//   - Roll back a rate limit counter on failure; a counted attempt stays
//     counted to keep guessing bounded.
package emailauth
