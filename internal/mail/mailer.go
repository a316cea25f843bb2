// Package mail delivers outbound email. Delivery is fire-and-forget from the
// caller's point of view: request handlers enqueue through the Dispatcher and
// never wait on the provider.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer sends a single message to a provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridMailer delivers through the SendGrid HTTP API.
type SendgridMailer struct {
	apiKey     string
	senderName string
	sender     string
}

func NewSendgridMailer(apiKey, senderName, sender string) *SendgridMailer {
	return &SendgridMailer{apiKey: apiKey, senderName: senderName, sender: sender}
}

func (m *SendgridMailer) Send(_ context.Context, msg Message) error {
	from := sgmail.NewEmail(m.senderName, m.sender)
	to := sgmail.NewEmail("", msg.To)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, "", msg.HTMLBody)

	client := sendgrid.NewSendClient(m.apiKey)
	resp, err := client.Send(email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// provider is configured, so local runs still show the deep links.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("outbound email (not sent, no provider configured)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.HTMLBody)
	return nil
}
