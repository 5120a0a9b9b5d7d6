package mailer

import (
	"context"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/planora/emailauth"
)

// SendGridConfig configures the SendGrid-backed sender.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// BaseURL is the frontend origin used to build verification and reset
	// links, e.g. "https://app.planora.events".
	BaseURL string
}

// SendGrid implements [emailauth.EmailSender] over the SendGrid v3 API.
type SendGrid struct {
	config SendGridConfig
	client *sendgrid.Client
	logger *logrus.Logger
}

var _ emailauth.EmailSender = (*SendGrid)(nil)

// NewSendGrid builds the sender. A nil logger falls back to the logrus
// standard logger.
func NewSendGrid(cfg SendGridConfig, logger *logrus.Logger) *SendGrid {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SendGrid{
		config: cfg,
		client: sendgrid.NewSendClient(cfg.APIKey),
		logger: logger,
	}
}

// Send renders and delivers the notification. Delivery problems of any kind
// are logged and reported as false; this method never panics across the
// boundary.
func (s *SendGrid) Send(ctx context.Context, n emailauth.Notification) bool {
	subject, body, err := render(n, s.config.BaseURL)
	if err != nil {
		s.logDelivery(n, "render_failed", err)
		return false
	}

	from := mail.NewEmail(s.config.FromName, s.config.FromEmail)
	to := mail.NewEmail("", n.Recipient)
	message := mail.NewSingleEmail(from, subject, to, "", body)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logDelivery(n, "transport_error", err)
		return false
	}
	if resp.StatusCode >= 400 {
		s.logDelivery(n, fmt.Sprintf("http_%d", resp.StatusCode), nil)
		return false
	}

	s.logDelivery(n, "sent", nil)
	return true
}

func (s *SendGrid) logDelivery(n emailauth.Notification, status string, err error) {
	fields := logrus.Fields{
		"type":      n.Kind.String(),
		"recipient": n.Recipient,
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("email delivery failed")
		return
	}
	if status == "sent" {
		s.logger.WithFields(fields).Info("email delivered")
		return
	}
	s.logger.WithFields(fields).Warn("email delivery failed")
}

var (
	otpTemplate = template.Must(template.New("otp").Parse(`<p>Your Planora login code is:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>
<p>The code expires in {{.ExpiresMinutes}} minutes. If you did not request it, ignore this email.</p>`))

	verificationTemplate = template.Must(template.New("verification").Parse(`<p>Confirm your email address to activate your Planora account:</p>
<p><a href="{{.Link}}">Verify email address</a></p>
<p>The link expires in {{.ExpiresMinutes}} minutes.</p>`))

	magicLinkTemplate = template.Must(template.New("magic_link").Parse(`<p>Use the link below to reset your Planora password:</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>The link expires in {{.ExpiresMinutes}} minutes. If you did not request a reset, ignore this email.</p>`))
)

type templateData struct {
	Code           string
	Link           string
	ExpiresMinutes int
}

func render(n emailauth.Notification, baseURL string) (subject, body string, err error) {
	data := templateData{
		Code:           n.Code,
		ExpiresMinutes: expiresMinutes(n.ExpiresIn),
	}

	var tmpl *template.Template
	switch n.Kind {
	case emailauth.NotificationOTP:
		subject = "Your Planora login code"
		tmpl = otpTemplate
	case emailauth.NotificationVerification:
		subject = "Verify your Planora email address"
		tmpl = verificationTemplate
		data.Link = flowLink(baseURL, "/verify-email", url.Values{"user": {n.UserID}, "token": {n.Token}})
	case emailauth.NotificationMagicLink:
		subject = "Reset your Planora password"
		tmpl = magicLinkTemplate
		data.Link = flowLink(baseURL, "/reset-password", url.Values{"email": {n.Recipient}, "token": {n.Token}})
	default:
		return "", "", fmt.Errorf("unknown notification kind %d", n.Kind)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

func flowLink(baseURL, path string, query url.Values) string {
	return strings.TrimRight(baseURL, "/") + path + "?" + query.Encode()
}

func expiresMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}
