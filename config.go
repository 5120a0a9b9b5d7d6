package emailauth

import (
	"fmt"
	"strings"
	"time"

	"github.com/planora/emailauth/internal/token"
)

// Config is the full configuration surface of the core. Construct it with
// [DefaultConfig], override what you need, and hand it to the [Builder];
// the service never reads ambient state.
type Config struct {
	OTP          OTPConfig
	Verification VerificationConfig
	MagicLink    MagicLinkConfig
	Cache        CacheConfig
	Audit        AuditConfig
}

// RateLimitConfig bounds the send half of a flow: at most MaxRequests sends
// per identifier per DecayWindow.
type RateLimitConfig struct {
	MaxRequests int
	DecayWindow time.Duration
}

// OTPConfig tunes the OTP login flow.
type OTPConfig struct {
	// TTL is the code's lifetime; it also bounds the validation-attempt
	// window for the address.
	TTL                   time.Duration
	RateLimit             RateLimitConfig
	MaxValidationAttempts int
}

// VerificationConfig tunes the email verification flow.
type VerificationConfig struct {
	// TokenHexLength is the token length in hex characters; the stored
	// random payload is half that in bytes. Must be even.
	TokenHexLength        int
	TTL                   time.Duration
	RateLimit             RateLimitConfig
	MaxValidationAttempts int
}

// MagicLinkConfig tunes the password reset flow.
type MagicLinkConfig struct {
	TokenHexLength        int
	TTL                   time.Duration
	RateLimit             RateLimitConfig
	MaxValidationAttempts int
}

// CacheConfig namespaces the core's keys on the shared cache.
type CacheConfig struct {
	KeyPrefix string
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the request path when
	// the buffer is full. Dropped counts are observable via
	// [Service.AuditDropped].
	DropIfFull bool
}

// DefaultConfig returns production-reasonable settings: short-lived OTPs
// with a tight guess budget, day-long verification tokens, quarter-hour
// magic links.
func DefaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			TTL:                   10 * time.Minute,
			RateLimit:             RateLimitConfig{MaxRequests: 5, DecayWindow: 15 * time.Minute},
			MaxValidationAttempts: 5,
		},
		Verification: VerificationConfig{
			TokenHexLength:        2 * token.DefaultTokenBytes,
			TTL:                   24 * time.Hour,
			RateLimit:             RateLimitConfig{MaxRequests: 3, DecayWindow: time.Hour},
			MaxValidationAttempts: 10,
		},
		MagicLink: MagicLinkConfig{
			TokenHexLength:        2 * token.DefaultTokenBytes,
			TTL:                   15 * time.Minute,
			RateLimit:             RateLimitConfig{MaxRequests: 3, DecayWindow: time.Hour},
			MaxValidationAttempts: 10,
		},
		Cache: CacheConfig{KeyPrefix: token.DefaultKeyPrefix},
		Audit: AuditConfig{Enabled: false, BufferSize: 256, DropIfFull: true},
	}
}

// Validate rejects configurations that would silently disable a flow or
// corrupt the key layout.
func (c Config) Validate() error {
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("otp: ttl must be positive, got %v", c.OTP.TTL)
	}
	if err := validateRateLimit("otp", c.OTP.RateLimit); err != nil {
		return err
	}
	if c.OTP.MaxValidationAttempts < 0 {
		return fmt.Errorf("otp: max validation attempts must be non-negative, got %d", c.OTP.MaxValidationAttempts)
	}

	if err := validateTokenFlow("verification", c.Verification.TokenHexLength, c.Verification.TTL, c.Verification.MaxValidationAttempts); err != nil {
		return err
	}
	if err := validateRateLimit("verification", c.Verification.RateLimit); err != nil {
		return err
	}

	if err := validateTokenFlow("magic_link", c.MagicLink.TokenHexLength, c.MagicLink.TTL, c.MagicLink.MaxValidationAttempts); err != nil {
		return err
	}
	if err := validateRateLimit("magic_link", c.MagicLink.RateLimit); err != nil {
		return err
	}

	prefix := c.Cache.KeyPrefix
	if prefix == "" {
		return fmt.Errorf("cache: key prefix must not be empty")
	}
	if strings.ContainsAny(prefix, ": \t\n") {
		return fmt.Errorf("cache: key prefix %q must not contain separators or whitespace", prefix)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit: buffer size must be positive when enabled, got %d", c.Audit.BufferSize)
	}
	return nil
}

func validateRateLimit(flow string, rl RateLimitConfig) error {
	if rl.MaxRequests < 0 {
		return fmt.Errorf("%s: rate limit max requests must be non-negative, got %d", flow, rl.MaxRequests)
	}
	if rl.DecayWindow <= 0 {
		return fmt.Errorf("%s: rate limit decay window must be positive, got %v", flow, rl.DecayWindow)
	}
	return nil
}

func validateTokenFlow(flow string, hexLength int, ttl time.Duration, maxAttempts int) error {
	if hexLength < 32 || hexLength%2 != 0 {
		return fmt.Errorf("%s: token hex length must be an even number >= 32, got %d", flow, hexLength)
	}
	if ttl <= 0 {
		return fmt.Errorf("%s: ttl must be positive, got %v", flow, ttl)
	}
	if maxAttempts < 0 {
		return fmt.Errorf("%s: max validation attempts must be non-negative, got %d", flow, maxAttempts)
	}
	return nil
}
