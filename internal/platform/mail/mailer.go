// Package mail provides the outbound email capability used by the due-soon
// notification dispatcher. Delivery is best-effort: callers decide what to do
// with a failed send, and the dispatcher's policy is to log and continue.
package mail

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoRecipients is returned when Send is invoked with an empty recipient list.
var ErrNoRecipients = errors.New("no recipients provided")

// Mailer defines the interface for sending a single email message to an
// ordered list of recipients.
type Mailer interface {
	// Send delivers one message with the given subject and plain-text body to
	// every address in recipients. The recipient list must be non-empty;
	// callers are expected to have trimmed and deduplicated it.
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// LogMailer is a Mailer that writes messages to the log instead of
// delivering them. It backs local development and tests when no SMTP
// server is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. If logger is nil, a default logger is used.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{
		logger: logger.With(slog.String("component", "log_mailer")),
	}
}

// Ensure LogMailer implements Mailer interface
var _ Mailer = (*LogMailer)(nil)

// Send implements Mailer.Send by logging the message.
func (m *LogMailer) Send(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	m.logger.Info("email suppressed (log mailer)",
		slog.String("subject", subject),
		slog.Any("recipients", recipients),
		slog.Int("body_bytes", len(body)))
	return nil
}
