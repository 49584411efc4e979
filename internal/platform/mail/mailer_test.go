package mail_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskshare-api/internal/platform/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMailer(t *testing.T) {
	t.Parallel()

	mailer := mail.NewLogMailer(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("accepts a message with recipients", func(t *testing.T) {
		t.Parallel()

		err := mailer.Send(context.Background(), "Subject", "Body", []string{"a@example.com"})
		assert.NoError(t, err)
	})

	t.Run("rejects an empty recipient list", func(t *testing.T) {
		t.Parallel()

		err := mailer.Send(context.Background(), "Subject", "Body", nil)
		assert.ErrorIs(t, err, mail.ErrNoRecipients)
	})
}

func TestNewSMTPMailer(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host: "smtp.example.com",
			Port: 587,
			From: "reminders@example.com",
		}, nil)
		require.NoError(t, err)
		assert.NotNil(t, mailer)
	})

	t.Run("missing host", func(t *testing.T) {
		t.Parallel()

		_, err := mail.NewSMTPMailer(mail.SMTPConfig{From: "reminders@example.com"}, nil)
		assert.Error(t, err)
	})

	t.Run("missing sender", func(t *testing.T) {
		t.Parallel()

		_, err := mail.NewSMTPMailer(mail.SMTPConfig{Host: "smtp.example.com"}, nil)
		assert.Error(t, err)
	})
}
