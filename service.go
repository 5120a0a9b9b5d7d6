package emailauth

import (
	"context"
	"net/mail"
	"strings"

	"github.com/planora/emailauth/internal/ratelimit"
	"github.com/planora/emailauth/internal/token"
)

// Service orchestrates the three passwordless flows. Construct it through
// [Builder.Build]; the zero value refuses every call with
// [ErrServiceNotReady].
type Service struct {
	config  Config
	tokens  *token.Manager
	limiter *ratelimit.Limiter
	users   UserProvider
	sender  EmailSender
	audit   *auditDispatcher
	metrics *Metrics
}

// Close stops the audit dispatcher, draining buffered events. Safe to call
// more than once.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.audit.Close()
}

// AuditDropped reports audit events discarded under backpressure.
func (s *Service) AuditDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot copies the current flow counters.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return s.metrics.Snapshot()
}

func (s *Service) metricInc(id MetricID) {
	if s == nil {
		return
	}
	s.metrics.Inc(id)
}

func (s *Service) ready() error {
	if s == nil || s.tokens == nil || s.limiter == nil || s.users == nil || s.sender == nil {
		return ErrServiceNotReady
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, eventType string, success bool, recipient, userID string, kind ErrorKind, metadata map[string]string) {
	s.audit.Emit(ctx, AuditEvent{
		EventType: eventType,
		Recipient: recipient,
		UserID:    userID,
		Success:   success,
		ErrorKind: kind,
		Metadata:  metadata,
	})
}

// normalizeEmail lowercases and trims an address; secret keys and rate limit
// keys are derived from this form, making matching case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts plain addr-spec addresses only: no display names, no
// groups, exactly what a login form should submit.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}

func sendSuccess(message string) SendResult {
	return SendResult{Success: true, Message: message}
}

func sendFailure(kind ErrorKind, message string) SendResult {
	return SendResult{Message: message, Kind: kind}
}

func validationFailure(kind ErrorKind, message string) ValidationResult {
	return ValidationResult{Message: message, Kind: kind}
}
