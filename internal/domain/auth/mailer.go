package auth

import (
	"context"
	"log/slog"
)

type Mailer interface {
	SendVerification(ctx context.Context, email, link string) error
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes outgoing mail to the log instead of sending it.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, link string) error {
	m.logger.InfoContext(ctx, "verification email", "to", email, "link", link)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	m.logger.InfoContext(ctx, "password reset email", "to", email, "link", link)
	return nil
}
