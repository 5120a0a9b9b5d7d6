// Package token generates, hashes, stores, and validates the ephemeral
// secrets behind the passwordless flows: 6-digit OTP codes and opaque hex
// tokens. The cache only ever sees SHA-256 digests; plaintext secrets exist
// in memory for the duration of a call and inside the outbound email.
//
// # What this package must NOT do
//
//   - Carry policy. Rate limiting, flow orchestration, and error taxonomy
//     live above it; this package only answers "is this the secret I stored".
//   - Report absent or expired secrets as errors. Those are false/absent
//     results; only cache faults propagate.
package token
