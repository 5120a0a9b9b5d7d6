package emailauth

import (
	"context"

	"github.com/planora/emailauth/internal/ratelimit"
	"github.com/planora/emailauth/internal/token"
)

// SendMagicLink issues a fresh password reset token for the address and
// emails it. Unlike OTP login, the address must belong to an existing
// account: there is no password to reset otherwise.
func (s *Service) SendMagicLink(ctx context.Context, email string) (SendResult, error) {
	if err := s.ready(); err != nil {
		return SendResult{}, err
	}
	if !validEmail(email) {
		s.emitAudit(ctx, auditEventMagicLinkSend, false, email, "", ErrorInvalidEmail, nil)
		return sendFailure(ErrorInvalidEmail, "email address is malformed"), nil
	}
	addr := normalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, addr)
	if err != nil {
		return SendResult{}, err
	}
	if user == nil {
		s.metricInc(MetricUserNotFound)
		s.emitAudit(ctx, auditEventMagicLinkSend, false, addr, "", ErrorUserNotFound, nil)
		return sendFailure(ErrorUserNotFound, "no account for that address"), nil
	}

	flowKey := ratelimit.MagicLinkKey(addr)
	allowed, err := s.limiter.Attempt(ctx, flowKey, s.config.MagicLink.RateLimit.MaxRequests, s.config.MagicLink.RateLimit.DecayWindow)
	if err != nil {
		return SendResult{}, err
	}
	if !allowed {
		retryIn, err := s.limiter.AvailableIn(ctx, flowKey)
		if err != nil {
			return SendResult{}, err
		}
		s.metricInc(MetricMagicLinkSendRateLimited)
		s.emitAudit(ctx, auditEventMagicLinkSend, false, addr, user.ID, ErrorRateLimitExceeded, nil)
		result := sendFailure(ErrorRateLimitExceeded, "too many reset requests, try again later")
		result.RetryIn = retryIn
		return result, nil
	}

	if err := s.tokens.InvalidateToken(ctx, flowKey); err != nil {
		return SendResult{}, err
	}

	resetToken, err := token.GenerateToken(s.config.MagicLink.TokenHexLength / 2)
	if err != nil {
		return SendResult{}, err
	}
	if err := s.tokens.StoreToken(ctx, flowKey, resetToken, s.config.MagicLink.TTL); err != nil {
		return SendResult{}, err
	}

	delivered := s.sender.Send(ctx, Notification{
		Kind:      NotificationMagicLink,
		Recipient: addr,
		Token:     resetToken,
		ExpiresIn: s.config.MagicLink.TTL,
	})
	if !delivered {
		s.metricInc(MetricEmailDeliveryFailed)
		s.emitAudit(ctx, auditEventMagicLinkSend, false, addr, user.ID, ErrorEmailSendFailed, nil)
		return sendFailure(ErrorEmailSendFailed, "could not deliver the reset link"), nil
	}

	s.metricInc(MetricMagicLinkSent)
	s.emitAudit(ctx, auditEventMagicLinkSend, true, addr, user.ID, ErrorNone, nil)
	return sendSuccess("reset link sent"), nil
}

// ResendMagicLink re-runs [Service.SendMagicLink] under the same request
// budget.
func (s *Service) ResendMagicLink(ctx context.Context, email string) (SendResult, error) {
	return s.SendMagicLink(ctx, email)
}

// VerifyMagicLink checks a presented reset token for the address and
// consumes it on success. It does not touch the account: changing the
// password is the caller's next step once verification succeeds.
func (s *Service) VerifyMagicLink(ctx context.Context, resetToken, email string) (ValidationResult, error) {
	if err := s.ready(); err != nil {
		return ValidationResult{}, err
	}
	if !validEmail(email) {
		s.emitAudit(ctx, auditEventMagicLinkVerify, false, email, "", ErrorInvalidEmail, nil)
		return validationFailure(ErrorInvalidEmail, "email address is malformed"), nil
	}
	addr := normalizeEmail(email)

	attemptsKey := ratelimit.ValidationAttemptsKey(ratelimit.FlowMagicLink, addr)
	blocked, err := s.limiter.TooManyAttempts(ctx, attemptsKey, s.config.MagicLink.MaxValidationAttempts)
	if err != nil {
		return ValidationResult{}, err
	}
	if blocked {
		s.metricInc(MetricMagicLinkAttemptsExceeded)
		s.emitAudit(ctx, auditEventMagicLinkVerify, false, addr, "", ErrorValidationAttemptsExceeded, nil)
		return validationFailure(ErrorValidationAttemptsExceeded, "too many attempts, request a new link"), nil
	}
	if _, err := s.limiter.Hit(ctx, attemptsKey, s.config.MagicLink.TTL); err != nil {
		return ValidationResult{}, err
	}

	flowKey := ratelimit.MagicLinkKey(addr)
	match, err := s.tokens.ValidateToken(ctx, flowKey, resetToken)
	if err != nil {
		return ValidationResult{}, err
	}
	if !match {
		s.metricInc(MetricMagicLinkVerifyFailed)
		s.emitAudit(ctx, auditEventMagicLinkVerify, false, addr, "", ErrorInvalidToken, nil)
		return validationFailure(ErrorInvalidToken, "token is invalid or expired"), nil
	}

	if err := s.tokens.InvalidateToken(ctx, flowKey); err != nil {
		return ValidationResult{}, err
	}
	if err := s.limiter.Clear(ctx, attemptsKey); err != nil {
		return ValidationResult{}, err
	}

	s.metricInc(MetricMagicLinkVerified)
	s.emitAudit(ctx, auditEventMagicLinkVerify, true, addr, "", ErrorNone, nil)
	return ValidationResult{Success: true, Message: "reset link accepted", Email: addr}, nil
}
