package emailauth

import (
	"context"

	"github.com/planora/emailauth/internal/ratelimit"
	"github.com/planora/emailauth/internal/token"
)

// SendOTPCode issues a fresh login code to the address and emails it. Any
// previous code for the address is invalidated first, so at most one code is
// live per address. Works for addresses without an account; OTP login doubles
// as sign-up.
func (s *Service) SendOTPCode(ctx context.Context, email string) (SendResult, error) {
	if err := s.ready(); err != nil {
		return SendResult{}, err
	}
	if !validEmail(email) {
		s.emitAudit(ctx, auditEventOTPSend, false, email, "", ErrorInvalidEmail, nil)
		return sendFailure(ErrorInvalidEmail, "email address is malformed"), nil
	}
	addr := normalizeEmail(email)

	limitKey := ratelimit.OTPKey(addr)
	allowed, err := s.limiter.Attempt(ctx, limitKey, s.config.OTP.RateLimit.MaxRequests, s.config.OTP.RateLimit.DecayWindow)
	if err != nil {
		return SendResult{}, err
	}
	if !allowed {
		retryIn, err := s.limiter.AvailableIn(ctx, limitKey)
		if err != nil {
			return SendResult{}, err
		}
		s.metricInc(MetricOTPSendRateLimited)
		s.emitAudit(ctx, auditEventOTPSend, false, addr, "", ErrorRateLimitExceeded, nil)
		result := sendFailure(ErrorRateLimitExceeded, "too many code requests, try again later")
		result.RetryIn = retryIn
		return result, nil
	}

	// Replace, never coexist: a stale code must not remain guessable next
	// to the fresh one.
	if err := s.tokens.InvalidateOTP(ctx, addr); err != nil {
		return SendResult{}, err
	}

	code, err := token.GenerateOTPCode()
	if err != nil {
		return SendResult{}, err
	}
	if err := s.tokens.StoreOTP(ctx, addr, code, s.config.OTP.TTL); err != nil {
		return SendResult{}, err
	}

	delivered := s.sender.Send(ctx, Notification{
		Kind:      NotificationOTP,
		Recipient: addr,
		Code:      code,
		ExpiresIn: s.config.OTP.TTL,
	})
	if !delivered {
		s.metricInc(MetricEmailDeliveryFailed)
		s.emitAudit(ctx, auditEventOTPSend, false, addr, "", ErrorEmailSendFailed, nil)
		return sendFailure(ErrorEmailSendFailed, "could not deliver the code"), nil
	}

	s.metricInc(MetricOTPSent)
	s.emitAudit(ctx, auditEventOTPSend, true, addr, "", ErrorNone, nil)
	return sendSuccess("login code sent"), nil
}

// ResendOTP re-runs [Service.SendOTPCode]. Resends draw from the same
// request budget as the original send.
func (s *Service) ResendOTP(ctx context.Context, email string) (SendResult, error) {
	return s.SendOTPCode(ctx, email)
}

// VerifyOTPCode checks a presented code. The attempt is recorded whatever
// the outcome; once the guess budget is spent further attempts are refused
// until the window decays. A correct code is consumed: it cannot validate a
// second time.
func (s *Service) VerifyOTPCode(ctx context.Context, email, code string) (ValidationResult, error) {
	if err := s.ready(); err != nil {
		return ValidationResult{}, err
	}
	if !validEmail(email) {
		s.emitAudit(ctx, auditEventOTPVerify, false, email, "", ErrorInvalidEmail, nil)
		return validationFailure(ErrorInvalidEmail, "email address is malformed"), nil
	}
	addr := normalizeEmail(email)

	attemptsKey := ratelimit.ValidationAttemptsKey(ratelimit.FlowOTP, addr)
	blocked, err := s.limiter.TooManyAttempts(ctx, attemptsKey, s.config.OTP.MaxValidationAttempts)
	if err != nil {
		return ValidationResult{}, err
	}
	if blocked {
		s.metricInc(MetricOTPAttemptsExceeded)
		s.emitAudit(ctx, auditEventOTPVerify, false, addr, "", ErrorValidationAttemptsExceeded, nil)
		return validationFailure(ErrorValidationAttemptsExceeded, "too many attempts, request a new code"), nil
	}
	if _, err := s.limiter.Hit(ctx, attemptsKey, s.config.OTP.TTL); err != nil {
		return ValidationResult{}, err
	}

	match, err := s.tokens.ValidateOTP(ctx, addr, code)
	if err != nil {
		return ValidationResult{}, err
	}
	if !match {
		s.metricInc(MetricOTPVerifyFailed)
		s.emitAudit(ctx, auditEventOTPVerify, false, addr, "", ErrorInvalidCode, nil)
		return validationFailure(ErrorInvalidCode, "code is invalid or expired"), nil
	}

	if err := s.tokens.InvalidateOTP(ctx, addr); err != nil {
		return ValidationResult{}, err
	}
	if err := s.limiter.Clear(ctx, attemptsKey); err != nil {
		return ValidationResult{}, err
	}

	s.metricInc(MetricOTPVerified)
	s.emitAudit(ctx, auditEventOTPVerify, true, addr, "", ErrorNone, nil)
	return ValidationResult{Success: true, Message: "code accepted", Email: addr}, nil
}
