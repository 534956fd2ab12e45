// Package mailer delivers rendered transactional e-mails.
package mailer

import "context"

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}
