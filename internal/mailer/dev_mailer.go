package mailer

import (
	"context"
	"log/slog"
	"time"
)

// DevMailer logs instead of sending. Default outside production so local runs
// never need an SMTP relay.
type DevMailer struct {
	logger *slog.Logger
}

func NewDevMailer(logger *slog.Logger) *DevMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevMailer{logger: logger}
}

func (m *DevMailer) SendEmailVerification(ctx context.Context, email, name, token string) error {
	m.logger.InfoContext(ctx, "mail.email_verification", "to", email, "name", name, "token", token)
	return nil
}

func (m *DevMailer) SendInactivityWarning(ctx context.Context, email, name string, remaining time.Duration) error {
	m.logger.InfoContext(ctx, "mail.inactivity_warning",
		"to", email,
		"name", name,
		"minutes_remaining", RemainingMinutes(remaining),
	)
	return nil
}

func (m *DevMailer) SendDeactivationNotice(ctx context.Context, email, name string) error {
	m.logger.InfoContext(ctx, "mail.deactivation_notice", "to", email, "name", name)
	return nil
}

func (m *DevMailer) SendDeletionConfirmation(ctx context.Context, email, name string) error {
	m.logger.InfoContext(ctx, "mail.deletion_confirmation", "to", email, "name", name)
	return nil
}
