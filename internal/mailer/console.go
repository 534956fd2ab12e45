package mailer

import (
	"context"

	"comproposito/internal/utils"

	"github.com/sirupsen/logrus"
)

// Console logs messages instead of sending them. It is used when no provider
// key is configured.
type Console struct {
	logger *logrus.Logger
}

func NewConsole(logger *logrus.Logger) *Console {
	return &Console{logger: logger}
}

func (c *Console) Send(_ context.Context, msg *Message) (string, error) {
	id := "console-" + utils.NanoIDSize(12)

	c.logger.WithFields(logrus.Fields{
		"message_id": id,
		"to":         msg.ToEmail,
		"subject":    msg.Subject,
		"html_bytes": len(msg.HTML),
	}).Info("e-mail not sent, no provider configured")

	return id, nil
}
