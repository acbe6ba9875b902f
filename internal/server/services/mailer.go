package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/resend/resend-go/v2"
)

// Message is an outbound email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var sendEmail = func(c *resend.Client, ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	return c.Emails.SendWithContext(ctx, req)
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	_, err := sendEmail(m.client, ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// Resend API key is configured.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "email not sent, no provider configured", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
