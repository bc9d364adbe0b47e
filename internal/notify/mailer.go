// Package notify delivers outbound notifications: email through SendGrid
// and JSON webhooks through resty.
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Email is a single plain text and HTML message.
type Email struct {
	ToName    string
	ToAddress string
	Subject   string
	Text      string
	HTML      string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

// NewSendGridMailer returns a mailer for apiKey. from is the sender address.
func NewSendGridMailer(apiKey, fromName, from string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		from:     from,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, email Email) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		email.Subject,
		mail.NewEmail(email.ToName, email.ToAddress),
		email.Text,
		email.HTML,
	)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
