package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig holds connection settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer implements Mailer over SMTP using go-mail.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

// NewSMTPMailer creates an SMTP-backed Mailer from the given configuration.
// The connection is established lazily on each Send.
// If logger is nil, a default logger will be used.
func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host cannot be empty")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{
		client: client,
		from:   cfg.From,
		logger: logger.With(slog.String("component", "smtp_mailer")),
	}, nil
}

// Ensure SMTPMailer implements Mailer interface
var _ Mailer = (*SMTPMailer)(nil)

// Send implements Mailer.Send by delivering one plain-text message over SMTP.
func (m *SMTPMailer) Send(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	m.logger.Debug("email sent",
		slog.String("subject", subject),
		slog.Int("recipient_count", len(recipients)))
	return nil
}
