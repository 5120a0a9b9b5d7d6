package emailauth

import (
	"context"
	"time"

	"github.com/planora/emailauth/internal/ratelimit"
	"github.com/planora/emailauth/internal/token"
)

// SendVerificationEmail issues a fresh verification token for the user and
// emails it. The user object comes from the persistence layer, already
// validated; the flow is keyed by user ID, not address.
func (s *Service) SendVerificationEmail(ctx context.Context, user *User) (SendResult, error) {
	if err := s.ready(); err != nil {
		return SendResult{}, err
	}
	if user == nil || user.ID == "" {
		return SendResult{}, ErrNilUser
	}

	flowKey := ratelimit.VerificationKey(user.ID)
	allowed, err := s.limiter.Attempt(ctx, flowKey, s.config.Verification.RateLimit.MaxRequests, s.config.Verification.RateLimit.DecayWindow)
	if err != nil {
		return SendResult{}, err
	}
	if !allowed {
		retryIn, err := s.limiter.AvailableIn(ctx, flowKey)
		if err != nil {
			return SendResult{}, err
		}
		s.metricInc(MetricVerificationSendRateLimited)
		s.emitAudit(ctx, auditEventVerificationSend, false, user.Email, user.ID, ErrorRateLimitExceeded, nil)
		result := sendFailure(ErrorRateLimitExceeded, "too many verification requests, try again later")
		result.RetryIn = retryIn
		return result, nil
	}

	if err := s.tokens.InvalidateToken(ctx, flowKey); err != nil {
		return SendResult{}, err
	}

	verificationToken, err := token.GenerateToken(s.config.Verification.TokenHexLength / 2)
	if err != nil {
		return SendResult{}, err
	}
	if err := s.tokens.StoreToken(ctx, flowKey, verificationToken, s.config.Verification.TTL); err != nil {
		return SendResult{}, err
	}

	delivered := s.sender.Send(ctx, Notification{
		Kind:      NotificationVerification,
		Recipient: user.Email,
		Token:     verificationToken,
		UserID:    user.ID,
		ExpiresIn: s.config.Verification.TTL,
	})
	if !delivered {
		s.metricInc(MetricEmailDeliveryFailed)
		s.emitAudit(ctx, auditEventVerificationSend, false, user.Email, user.ID, ErrorEmailSendFailed, nil)
		return sendFailure(ErrorEmailSendFailed, "could not deliver the verification email"), nil
	}

	s.metricInc(MetricVerificationSent)
	s.emitAudit(ctx, auditEventVerificationSend, true, user.Email, user.ID, ErrorNone, nil)
	return sendSuccess("verification email sent"), nil
}

// ResendVerification re-runs [Service.SendVerificationEmail] under the same
// request budget.
func (s *Service) ResendVerification(ctx context.Context, user *User) (SendResult, error) {
	return s.SendVerificationEmail(ctx, user)
}

// VerifyEmailWithUserID checks a presented verification token for the user
// and, on success, persists the verification timestamp and consumes the
// token. The attempt is recorded whatever the outcome.
func (s *Service) VerifyEmailWithUserID(ctx context.Context, userID, verificationToken string) (ValidationResult, error) {
	if err := s.ready(); err != nil {
		return ValidationResult{}, err
	}
	if userID == "" {
		s.emitAudit(ctx, auditEventVerificationConfirm, false, "", "", ErrorInvalidToken, nil)
		return validationFailure(ErrorInvalidToken, "token is invalid or expired"), nil
	}

	attemptsKey := ratelimit.ValidationAttemptsKey(ratelimit.FlowVerification, userID)
	blocked, err := s.limiter.TooManyAttempts(ctx, attemptsKey, s.config.Verification.MaxValidationAttempts)
	if err != nil {
		return ValidationResult{}, err
	}
	if blocked {
		s.metricInc(MetricVerificationAttemptsExceeded)
		s.emitAudit(ctx, auditEventVerificationConfirm, false, "", userID, ErrorValidationAttemptsExceeded, nil)
		return validationFailure(ErrorValidationAttemptsExceeded, "too many attempts, request a new verification email"), nil
	}
	if _, err := s.limiter.Hit(ctx, attemptsKey, s.config.Verification.TTL); err != nil {
		return ValidationResult{}, err
	}

	flowKey := ratelimit.VerificationKey(userID)
	match, err := s.tokens.ValidateToken(ctx, flowKey, verificationToken)
	if err != nil {
		return ValidationResult{}, err
	}
	if !match {
		s.metricInc(MetricVerificationFailed)
		s.emitAudit(ctx, auditEventVerificationConfirm, false, "", userID, ErrorInvalidToken, nil)
		return validationFailure(ErrorInvalidToken, "token is invalid or expired"), nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return ValidationResult{}, err
	}
	if user == nil {
		s.metricInc(MetricUserNotFound)
		s.emitAudit(ctx, auditEventVerificationConfirm, false, "", userID, ErrorUserNotFound, nil)
		return validationFailure(ErrorUserNotFound, "no account for that token"), nil
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID, time.Now().UTC()); err != nil {
		return ValidationResult{}, err
	}
	if err := s.tokens.InvalidateToken(ctx, flowKey); err != nil {
		return ValidationResult{}, err
	}
	if err := s.limiter.Clear(ctx, attemptsKey); err != nil {
		return ValidationResult{}, err
	}

	s.metricInc(MetricVerificationConfirmed)
	s.emitAudit(ctx, auditEventVerificationConfirm, true, user.Email, user.ID, ErrorNone, nil)
	return ValidationResult{Success: true, Message: "email verified", Email: user.Email, UserID: user.ID}, nil
}

// VerifyEmail is the token-only entry point. Tokens are stored hashed under
// per-user keys, so a bare token cannot be resolved to a verification
// record; this entry point therefore never succeeds. Use
// [Service.VerifyEmailWithUserID].
func (s *Service) VerifyEmail(ctx context.Context, verificationToken string) (ValidationResult, error) {
	if err := s.ready(); err != nil {
		return ValidationResult{}, err
	}
	s.metricInc(MetricVerificationFailed)
	s.emitAudit(ctx, auditEventVerificationConfirm, false, "", "", ErrorInvalidToken, map[string]string{
		"reason": "token_only_lookup_unsupported",
	})
	return validationFailure(ErrorInvalidToken, "token cannot be resolved without a user id"), nil
}
