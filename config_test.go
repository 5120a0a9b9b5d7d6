package emailauth

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero otp ttl", func(c *Config) { c.OTP.TTL = 0 }},
		{"negative otp max requests", func(c *Config) { c.OTP.RateLimit.MaxRequests = -1 }},
		{"zero otp decay window", func(c *Config) { c.OTP.RateLimit.DecayWindow = 0 }},
		{"negative otp validation attempts", func(c *Config) { c.OTP.MaxValidationAttempts = -1 }},
		{"short verification token", func(c *Config) { c.Verification.TokenHexLength = 16 }},
		{"odd verification token", func(c *Config) { c.Verification.TokenHexLength = 33 }},
		{"zero verification ttl", func(c *Config) { c.Verification.TTL = 0 }},
		{"short magic link token", func(c *Config) { c.MagicLink.TokenHexLength = 30 }},
		{"negative magic link ttl", func(c *Config) { c.MagicLink.TTL = -time.Minute }},
		{"empty key prefix", func(c *Config) { c.Cache.KeyPrefix = "" }},
		{"colon in key prefix", func(c *Config) { c.Cache.KeyPrefix = "a:b" }},
		{"whitespace in key prefix", func(c *Config) { c.Cache.KeyPrefix = "a b" }},
		{"audit enabled without buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestMetricsSnapshotIsolated(t *testing.T) {
	m := newMetrics()
	m.Inc(MetricOTPSent)
	m.Inc(MetricOTPSent)
	m.Inc(MetricMagicLinkVerified)
	m.Inc(metricCount + 5) // out of range, ignored

	snap := m.Snapshot()
	if snap.Counters[MetricOTPSent] != 2 || snap.Counters[MetricMagicLinkVerified] != 1 {
		t.Fatalf("counters: %+v", snap.Counters)
	}

	// Snapshots are copies.
	snap.Counters[MetricOTPSent] = 99
	if m.Snapshot().Counters[MetricOTPSent] != 2 {
		t.Fatal("snapshot aliases live counters")
	}
}
