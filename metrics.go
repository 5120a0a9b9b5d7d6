package emailauth

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricOTPSent counts delivered OTP codes.
	MetricOTPSent MetricID = iota
	// MetricOTPSendRateLimited counts OTP sends refused by the request budget.
	MetricOTPSendRateLimited
	// MetricOTPVerified counts accepted OTP codes.
	MetricOTPVerified
	// MetricOTPVerifyFailed counts wrong, expired, or consumed codes.
	MetricOTPVerifyFailed
	// MetricOTPAttemptsExceeded counts verifies refused by the guess budget.
	MetricOTPAttemptsExceeded
	// MetricVerificationSent counts delivered verification tokens.
	MetricVerificationSent
	// MetricVerificationSendRateLimited counts refused verification sends.
	MetricVerificationSendRateLimited
	// MetricVerificationConfirmed counts completed email verifications.
	MetricVerificationConfirmed
	// MetricVerificationFailed counts rejected verification tokens.
	MetricVerificationFailed
	// MetricVerificationAttemptsExceeded counts refused verification confirms.
	MetricVerificationAttemptsExceeded
	// MetricMagicLinkSent counts delivered magic links.
	MetricMagicLinkSent
	// MetricMagicLinkSendRateLimited counts refused magic link sends.
	MetricMagicLinkSendRateLimited
	// MetricMagicLinkVerified counts accepted magic link tokens.
	MetricMagicLinkVerified
	// MetricMagicLinkVerifyFailed counts rejected magic link tokens.
	MetricMagicLinkVerifyFailed
	// MetricMagicLinkAttemptsExceeded counts refused magic link verifies.
	MetricMagicLinkAttemptsExceeded
	// MetricEmailDeliveryFailed counts sender-reported delivery failures.
	MetricEmailDeliveryFailed
	// MetricUserNotFound counts flow calls for unknown accounts.
	MetricUserNotFound

	metricCount
)

// Metrics is a fixed set of lock-free counters. Zero allocation on the
// increment path; Snapshot copies into a map for export.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc adds one to the counter. Unknown IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
