package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/planora/emailauth/cache"
)

func newTestManager(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewManager(cache.NewRedisStore(client), "email_auth")
}

var otpPattern = regexp.MustCompile(`^\d{6}$`)

func TestGenerateOTPCodeFormat(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	padded := false

	for i := 0; i < 1000; i++ {
		code, err := GenerateOTPCode()
		if err != nil {
			t.Fatalf("GenerateOTPCode failed: %v", err)
		}
		if !otpPattern.MatchString(code) {
			t.Fatalf("code %q is not 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 0 || n > 999999 {
			t.Fatalf("code %q outside [000000, 999999]", code)
		}
		if code[0] == '0' {
			padded = true
		}
		if i < 100 {
			seen[code] = struct{}{}
		}
	}

	if !padded {
		t.Fatal("expected at least one zero-padded code in 1000 draws")
	}
	// Uniform over 1e6 values: 100 draws should be nearly all distinct.
	if len(seen) < 90 {
		t.Fatalf("only %d distinct codes in 100 draws", len(seen))
	}
}

var hexPattern = regexp.MustCompile(`^[0-9a-f]+$`)

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	for _, byteLength := range []int{16, 32, 48} {
		seen := make(map[string]struct{}, 100)
		for i := 0; i < 100; i++ {
			tok, err := GenerateToken(byteLength)
			if err != nil {
				t.Fatalf("GenerateToken(%d) failed: %v", byteLength, err)
			}
			if len(tok) != 2*byteLength {
				t.Fatalf("expected %d hex chars, got %d", 2*byteLength, len(tok))
			}
			if !hexPattern.MatchString(tok) {
				t.Fatalf("token %q is not lowercase hex", tok)
			}
			if _, dup := seen[tok]; dup {
				t.Fatalf("duplicate token %q", tok)
			}
			seen[tok] = struct{}{}
		}
	}
}

func TestGenerateTokenDefaultLength(t *testing.T) {
	tok, err := GenerateToken(0)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if len(tok) != 2*DefaultTokenBytes {
		t.Fatalf("expected default %d hex chars, got %d", 2*DefaultTokenBytes, len(tok))
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if HashToken("secret") != HashToken("secret") {
		t.Fatal("hash must be deterministic")
	}
	if HashToken("secret") == HashToken("secre7") {
		t.Fatal("distinct inputs must hash differently")
	}
	if len(HashToken("x")) != 64 || !hexPattern.MatchString(HashToken("x")) {
		t.Fatalf("hash %q is not 64 lowercase hex chars", HashToken("x"))
	}
}

func TestTimingSafeCompare(t *testing.T) {
	if !TimingSafeCompare("abc", "abc") {
		t.Fatal("equal inputs must compare true")
	}
	if TimingSafeCompare("abc", "abd") || TimingSafeCompare("abc", "ab") {
		t.Fatal("unequal inputs must compare false")
	}
}

func TestStoredOTPIsHashedAtRest(t *testing.T) {
	mr, m := newTestManager(t)
	ctx := context.Background()

	if err := m.StoreOTP(ctx, "user@test.com", "042531", time.Minute); err != nil {
		t.Fatalf("StoreOTP failed: %v", err)
	}

	raw, err := mr.Get("email_auth:otp:user@test.com")
	if err != nil {
		t.Fatalf("raw read failed: %v", err)
	}
	sum := sha256.Sum256([]byte("042531"))
	if raw != hex.EncodeToString(sum[:]) {
		t.Fatalf("stored value %q is not the SHA-256 of the code", raw)
	}
	if raw == "042531" {
		t.Fatal("plaintext secret stored")
	}
}

func TestValidateOTPLifecycle(t *testing.T) {
	_, m := newTestManager(t)
	ctx := context.Background()

	// Never stored.
	ok, err := m.ValidateOTP(ctx, "user@test.com", "123456")
	if err != nil {
		t.Fatalf("ValidateOTP failed: %v", err)
	}
	if ok {
		t.Fatal("absent code must not validate")
	}

	if err := m.StoreOTP(ctx, "user@test.com", "123456", time.Minute); err != nil {
		t.Fatalf("StoreOTP failed: %v", err)
	}

	if ok, _ := m.ValidateOTP(ctx, "user@test.com", "654321"); ok {
		t.Fatal("wrong code must not validate")
	}
	if ok, _ := m.ValidateOTP(ctx, "user@test.com", "123456"); !ok {
		t.Fatal("correct code must validate")
	}

	// Single use: explicit invalidation ends the lifecycle even though the
	// TTL has not elapsed.
	if err := m.InvalidateOTP(ctx, "user@test.com"); err != nil {
		t.Fatalf("InvalidateOTP failed: %v", err)
	}
	if ok, _ := m.ValidateOTP(ctx, "user@test.com", "123456"); ok {
		t.Fatal("invalidated code must not validate")
	}
	if err := m.InvalidateOTP(ctx, "user@test.com"); err != nil {
		t.Fatalf("repeat InvalidateOTP failed: %v", err)
	}
}

func TestValidateOTPEmailCaseInsensitive(t *testing.T) {
	_, m := newTestManager(t)
	ctx := context.Background()

	if err := m.StoreOTP(ctx, "User@Example.COM", "987654", time.Minute); err != nil {
		t.Fatalf("StoreOTP failed: %v", err)
	}
	ok, err := m.ValidateOTP(ctx, "user@example.com", "987654")
	if err != nil {
		t.Fatalf("ValidateOTP failed: %v", err)
	}
	if !ok {
		t.Fatal("email matching must be case-insensitive")
	}
}

func TestOTPTTLExpiry(t *testing.T) {
	mr, m := newTestManager(t)
	ctx := context.Background()

	if err := m.StoreOTP(ctx, "user@test.com", "123456", time.Second); err != nil {
		t.Fatalf("StoreOTP failed: %v", err)
	}
	if ok, _ := m.ValidateOTP(ctx, "user@test.com", "123456"); !ok {
		t.Fatal("fresh code must validate")
	}

	mr.FastForward(2 * time.Second)

	if ok, _ := m.ValidateOTP(ctx, "user@test.com", "123456"); ok {
		t.Fatal("expired code must not validate")
	}
}

func TestZeroTTLNeverValidates(t *testing.T) {
	_, m := newTestManager(t)
	ctx := context.Background()

	if err := m.StoreOTP(ctx, "user@test.com", "123456", 0); err != nil {
		t.Fatalf("StoreOTP failed: %v", err)
	}
	if ok, _ := m.ValidateOTP(ctx, "user@test.com", "123456"); ok {
		t.Fatal("zero-ttl code must never validate")
	}

	// Zero-ttl store also clears any previous live secret.
	if err := m.StoreOTP(ctx, "user@test.com", "111111", time.Minute); err != nil {
		t.Fatalf("StoreOTP failed: %v", err)
	}
	if err := m.StoreOTP(ctx, "user@test.com", "222222", 0); err != nil {
		t.Fatalf("StoreOTP failed: %v", err)
	}
	if ok, _ := m.ValidateOTP(ctx, "user@test.com", "111111"); ok {
		t.Fatal("zero-ttl store must clear the previous secret")
	}
}

func TestTokenStoreValidateInvalidate(t *testing.T) {
	mr, m := newTestManager(t)
	ctx := context.Background()

	tok, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if err := m.StoreToken(ctx, "magic_link:user@test.com", tok, time.Minute); err != nil {
		t.Fatalf("StoreToken failed: %v", err)
	}

	raw, err := mr.Get("email_auth:magic_link:user@test.com")
	if err != nil {
		t.Fatalf("raw read failed: %v", err)
	}
	if raw != HashToken(tok) {
		t.Fatal("stored value is not the token hash")
	}

	if ok, _ := m.ValidateToken(ctx, "magic_link:user@test.com", "deadbeef"); ok {
		t.Fatal("wrong token must not validate")
	}
	if ok, _ := m.ValidateToken(ctx, "magic_link:user@test.com", tok); !ok {
		t.Fatal("correct token must validate")
	}

	if err := m.InvalidateToken(ctx, "magic_link:user@test.com"); err != nil {
		t.Fatalf("InvalidateToken failed: %v", err)
	}
	if ok, _ := m.ValidateToken(ctx, "magic_link:user@test.com", tok); ok {
		t.Fatal("invalidated token must not validate")
	}
}
