package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/planora/emailauth/cache"
)

const (
	// DefaultTokenBytes is the random payload size for opaque tokens when
	// the caller does not specify one: 32 bytes, 64 hex characters.
	DefaultTokenBytes = 32

	// DefaultKeyPrefix namespaces all auth keys away from unrelated cache
	// users sharing the same backend.
	DefaultKeyPrefix = "email_auth"

	otpDigits = 6
	otpSpace  = 1_000_000
)

// Manager owns secret lifecycle against a cache: hashed-at-rest storage,
// constant-time validation, unconditional invalidation. One instance per
// service; safe for concurrent use.
type Manager struct {
	store  cache.Store
	prefix string
}

// NewManager builds a Manager over store. prefix namespaces every key;
// empty means [DefaultKeyPrefix].
func NewManager(store cache.Store, prefix string) *Manager {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Manager{store: store, prefix: prefix}
}

// GenerateOTPCode returns a CSPRNG-drawn 6-digit code, uniform over the full
// 000000–999999 space and left-padded with zeros.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpace))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// GenerateToken returns the lowercase hex encoding of byteLength CSPRNG
// bytes. Non-positive lengths fall back to [DefaultTokenBytes].
func GenerateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenBytes
	}
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken is the deterministic at-rest form of a secret: SHA-256,
// lowercase hex, 64 characters.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// TimingSafeCompare reports a == b in time independent of where the inputs
// first differ.
func TimingSafeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (m *Manager) key(logical string) string {
	return m.prefix + ":" + logical
}

func (m *Manager) otpKey(email string) string {
	return m.key("otp:" + strings.ToLower(strings.TrimSpace(email)))
}

// StoreOTP stores the hash of code under the email's OTP key. Email casing
// is irrelevant: keys are derived from the lowercased address.
func (m *Manager) StoreOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return m.put(ctx, m.otpKey(email), code, ttl)
}

// StoreToken stores the hash of token under an already-namespaced logical
// key (the global prefix is still applied).
func (m *Manager) StoreToken(ctx context.Context, key, token string, ttl time.Duration) error {
	return m.put(ctx, m.key(key), token, ttl)
}

func (m *Manager) put(ctx context.Context, key, secret string, ttl time.Duration) error {
	if ttl <= 0 {
		// Zero lifetime: the secret must never validate. Drop any
		// previous value instead of writing an immortal entry.
		return m.store.Forget(ctx, key)
	}
	return m.store.Put(ctx, key, HashToken(secret), ttl)
}

// ValidateOTP reports whether code matches the stored OTP for email. Absent,
// expired, and already-invalidated codes all validate false without error.
func (m *Manager) ValidateOTP(ctx context.Context, email, code string) (bool, error) {
	return m.validate(ctx, m.otpKey(email), code)
}

// ValidateToken is [Manager.ValidateOTP] with an explicit logical key.
func (m *Manager) ValidateToken(ctx context.Context, key, token string) (bool, error) {
	return m.validate(ctx, m.key(key), token)
}

func (m *Manager) validate(ctx context.Context, key, secret string) (bool, error) {
	stored, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return TimingSafeCompare(HashToken(secret), stored), nil
}

// InvalidateOTP deletes the stored OTP for email. Idempotent.
func (m *Manager) InvalidateOTP(ctx context.Context, email string) error {
	return m.store.Forget(ctx, m.otpKey(email))
}

// InvalidateToken deletes the secret at the logical key. Idempotent.
func (m *Manager) InvalidateToken(ctx context.Context, key string) error {
	return m.store.Forget(ctx, m.key(key))
}
