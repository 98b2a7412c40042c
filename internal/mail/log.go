package mail

import (
	"context"

	"ecc-auth/internal/logging"
)

// LogMailer logs delivery instead of sending. Used in development when no
// SMTP server is configured. OTP codes are never included in log output.
type LogMailer struct {
	log logging.Logger
}

// NewLogMailer returns a Mailer that only logs.
func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendWelcome(ctx context.Context, email, username string) error {
	m.log.Info(ctx, "mail: welcome (not sent, no SMTP configured)", "to", email, "username", username)
	return nil
}

func (m *LogMailer) SendOTP(ctx context.Context, email, code string) error {
	m.log.Info(ctx, "mail: otp (not sent, no SMTP configured)", "to", email)
	return nil
}

func (m *LogMailer) SendLoginAlert(ctx context.Context, email, location, device string, urgent bool) error {
	m.log.Info(ctx, "mail: login alert (not sent, no SMTP configured)",
		"to", email, "location", location, "urgent", urgent)
	return nil
}
