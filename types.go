package emailauth

import (
	"context"
	"time"
)

// ErrorKind classifies every domain-predictable failure of the three flows.
// The zero value means no failure.
type ErrorKind string

const (
	// ErrorNone marks a successful result.
	ErrorNone ErrorKind = ""
	// ErrorInvalidEmail rejects a syntactically malformed address.
	ErrorInvalidEmail ErrorKind = "invalid_email"
	// ErrorRateLimitExceeded refuses a send because the flow's request
	// budget for the identifier is exhausted.
	ErrorRateLimitExceeded ErrorKind = "rate_limit_exceeded"
	// ErrorEmailSendFailed reports a delivery failure from the EmailSender.
	ErrorEmailSendFailed ErrorKind = "email_send_failed"
	// ErrorInvalidCode rejects a wrong, expired, or already-consumed OTP.
	ErrorInvalidCode ErrorKind = "invalid_code"
	// ErrorInvalidToken rejects a wrong, expired, or already-consumed token.
	ErrorInvalidToken ErrorKind = "invalid_token"
	// ErrorValidationAttemptsExceeded refuses a verify because the guess
	// budget for the identifier is exhausted.
	ErrorValidationAttemptsExceeded ErrorKind = "validation_attempts_exceeded"
	// ErrorUserNotFound reports that no account matches the identifier.
	ErrorUserNotFound ErrorKind = "user_not_found"
)

// SendResult is the outcome of the send half of a flow.
type SendResult struct {
	Success bool
	Message string
	Kind    ErrorKind
	// RetryIn is how long until the send budget resets. Populated only
	// when Kind is [ErrorRateLimitExceeded].
	RetryIn time.Duration
}

// ValidationResult is the outcome of the verify half of a flow. On success
// Email carries the validated address (OTP and magic link) and UserID the
// verified account (email verification).
type ValidationResult struct {
	Success bool
	Message string
	Kind    ErrorKind
	Email   string
	UserID  string
}

// User is the minimal account shape the core needs from the surrounding
// application.
type User struct {
	ID              string
	Email           string
	EmailVerifiedAt *time.Time
}

// UserProvider is the persistence boundary. Lookups return (nil, nil) for
// absent users; errors are reserved for backend faults.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// MarkEmailVerified persists the verification timestamp for the user.
	MarkEmailVerified(ctx context.Context, userID string, verifiedAt time.Time) error
}

// NotificationKind tags the payload variant an [EmailSender] receives.
type NotificationKind uint8

const (
	// NotificationOTP carries a login code.
	NotificationOTP NotificationKind = iota
	// NotificationVerification carries an email verification token.
	NotificationVerification
	// NotificationMagicLink carries a password reset token.
	NotificationMagicLink
)

func (k NotificationKind) String() string {
	switch k {
	case NotificationOTP:
		return "otp"
	case NotificationVerification:
		return "verification"
	case NotificationMagicLink:
		return "magic_link"
	default:
		return "unknown"
	}
}

// Notification is the tagged union handed to an [EmailSender]: one type,
// three variants, each carrying its own rendering data.
type Notification struct {
	Kind      NotificationKind
	Recipient string
	// Code is set for [NotificationOTP].
	Code string
	// Token is set for [NotificationVerification] and
	// [NotificationMagicLink].
	Token string
	// UserID is set for [NotificationVerification].
	UserID string
	// ExpiresIn is the remaining validity of the secret at send time.
	ExpiresIn time.Duration
}

// EmailSender delivers a notification. It reports delivery failure as
// false rather than an error: transport exceptions must be caught at this
// boundary, logged, and converted.
type EmailSender interface {
	Send(ctx context.Context, n Notification) bool
}
