package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const messageIDHeader = "X-Message-Id"

type SendGrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGrid(apiKey, fromName, fromAddress string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddress),
	}
}

func (s *SendGrid) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)

	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	m.AddContent(sgmail.NewContent("text/html", msg.HTML))

	return m
}

func (s *SendGrid) Send(ctx context.Context, msg *Message) (string, error) {
	res, err := s.client.SendWithContext(ctx, s.prepare(msg))
	if err != nil {
		return "", fmt.Errorf("failed to send e-mail: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("e-mail provider rejected message with status %d: %s", res.StatusCode, res.Body)
	}

	var messageID string
	if ids := res.Headers[messageIDHeader]; len(ids) > 0 {
		messageID = ids[0]
	}

	return messageID, nil
}
