package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig holds the configuration for SendGrid
type SendGridConfig struct {
	Key      string
	From     string
	FromName string
}

// SendGridTransport delivers mail through the SendGrid v3 API.
type SendGridTransport struct {
	config *SendGridConfig
	client *sendgrid.Client
}

func NewSendGridTransport(config *SendGridConfig) (*SendGridTransport, error) {
	if config.Key == "" || config.From == "" {
		return nil, errors.New("invalid SendGrid configuration")
	}
	return &SendGridTransport{
		config: config,
		client: sendgrid.NewSendClient(config.Key),
	}, nil
}

func (t *SendGridTransport) Deliver(ctx context.Context, email *Email) error {
	from := mail.NewEmail(t.config.FromName, t.config.From)

	for _, rcpt := range email.To {
		message := mail.NewSingleEmail(from, email.Subject, mail.NewEmail("", rcpt), email.Body, email.HTMLBody)

		response, err := t.client.SendWithContext(ctx, message)
		if err != nil {
			return fmt.Errorf("sendgrid request failed: %w", err)
		}
		if response.StatusCode != http.StatusAccepted {
			return fmt.Errorf("sendgrid rejected email, status code: %d", response.StatusCode)
		}
	}
	return nil
}
