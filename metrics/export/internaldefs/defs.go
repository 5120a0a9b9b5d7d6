package internaldefs

import (
	"github.com/planora/emailauth"
)

// CounterDef binds a core counter to its stable exported name and help text.
//
// CounterDef instances are intended to be configured during initialization and
// then treated as immutable.
type CounterDef struct {
	ID   emailauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every core counter in export order.
var CounterDefs = []CounterDef{
	{ID: emailauth.MetricOTPSent, Name: "emailauth_otp_sent_total", Help: "Delivered OTP codes."},
	{ID: emailauth.MetricOTPSendRateLimited, Name: "emailauth_otp_send_rate_limited_total", Help: "OTP sends refused by the request budget."},
	{ID: emailauth.MetricOTPVerified, Name: "emailauth_otp_verified_total", Help: "Accepted OTP codes."},
	{ID: emailauth.MetricOTPVerifyFailed, Name: "emailauth_otp_verify_failed_total", Help: "Wrong, expired, or consumed OTP codes."},
	{ID: emailauth.MetricOTPAttemptsExceeded, Name: "emailauth_otp_attempts_exceeded_total", Help: "OTP verifies refused by the guess budget."},
	{ID: emailauth.MetricVerificationSent, Name: "emailauth_verification_sent_total", Help: "Delivered email verification tokens."},
	{ID: emailauth.MetricVerificationSendRateLimited, Name: "emailauth_verification_send_rate_limited_total", Help: "Verification sends refused by the request budget."},
	{ID: emailauth.MetricVerificationConfirmed, Name: "emailauth_verification_confirmed_total", Help: "Completed email verifications."},
	{ID: emailauth.MetricVerificationFailed, Name: "emailauth_verification_failed_total", Help: "Rejected email verification tokens."},
	{ID: emailauth.MetricVerificationAttemptsExceeded, Name: "emailauth_verification_attempts_exceeded_total", Help: "Verification confirms refused by the guess budget."},
	{ID: emailauth.MetricMagicLinkSent, Name: "emailauth_magic_link_sent_total", Help: "Delivered password reset links."},
	{ID: emailauth.MetricMagicLinkSendRateLimited, Name: "emailauth_magic_link_send_rate_limited_total", Help: "Reset sends refused by the request budget."},
	{ID: emailauth.MetricMagicLinkVerified, Name: "emailauth_magic_link_verified_total", Help: "Accepted password reset tokens."},
	{ID: emailauth.MetricMagicLinkVerifyFailed, Name: "emailauth_magic_link_verify_failed_total", Help: "Rejected password reset tokens."},
	{ID: emailauth.MetricMagicLinkAttemptsExceeded, Name: "emailauth_magic_link_attempts_exceeded_total", Help: "Reset verifies refused by the guess budget."},
	{ID: emailauth.MetricEmailDeliveryFailed, Name: "emailauth_email_delivery_failed_total", Help: "Sender-reported delivery failures."},
	{ID: emailauth.MetricUserNotFound, Name: "emailauth_user_not_found_total", Help: "Flow calls for unknown accounts."},
}

// AuditDroppedName is the exported name of the audit backpressure counter,
// which lives outside the snapshot.
const AuditDroppedName = "emailauth_audit_dropped_total"

// AuditDroppedHelp is the help text for [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
