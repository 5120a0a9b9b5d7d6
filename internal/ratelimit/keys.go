package ratelimit

import "strings"

// Flow names used in validation-attempt keys.
const (
	FlowOTP          = "otp"
	FlowVerification = "verification"
	FlowMagicLink    = "magic_link"
)

// OTPKey is the per-address key for the OTP flow. Shared by secret storage
// and the send-side limiter (each applies its own namespace prefix).
func OTPKey(email string) string {
	return FlowOTP + ":" + normalizeIdentifier(email)
}

// VerificationKey is the per-user key for the email verification flow.
func VerificationKey(userID string) string {
	return FlowVerification + ":" + userID
}

// MagicLinkKey is the per-address key for the password reset flow.
func MagicLinkKey(email string) string {
	return FlowMagicLink + ":" + normalizeIdentifier(email)
}

// ValidationAttemptsKey is the verify-side counter key for a flow, distinct
// from the send-side limit on the flow key itself.
func ValidationAttemptsKey(flow, identifier string) string {
	return "attempts:" + flow + ":" + normalizeIdentifier(identifier)
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
