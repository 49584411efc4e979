package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskshare-api/internal/platform/mail"
)

// SentMessage records one delivery attempt made through the MockMailer.
type SentMessage struct {
	Subject    string
	Body       string
	Recipients []string
}

// MockMailer implements mail.Mailer for testing, recording every send.
type MockMailer struct {
	// SendFn allows test cases to mock the Send behavior
	SendFn func(ctx context.Context, subject, body string, recipients []string) error

	// Err is returned from Send when SendFn is not set
	Err error

	mu   sync.Mutex
	Sent []SentMessage
}

var _ mail.Mailer = (*MockMailer)(nil)

// SentCount returns the number of deliveries attempted so far. Safe to call
// while another goroutine is sending.
func (m *MockMailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Send implements the mail.Mailer interface
func (m *MockMailer) Send(ctx context.Context, subject, body string, recipients []string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, SentMessage{
		Subject:    subject,
		Body:       body,
		Recipients: append([]string(nil), recipients...),
	})
	m.mu.Unlock()

	if m.SendFn != nil {
		return m.SendFn(ctx, subject, body, recipients)
	}
	return m.Err
}
