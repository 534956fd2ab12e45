package mailer

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSend(t *testing.T) {
	logger, hook := test.NewNullLogger()

	id, err := NewConsole(logger).Send(context.Background(), &Message{
		ToEmail: "maker@example.pt",
		Subject: "Olá",
		HTML:    "<p>Olá</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, id, "console-")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "maker@example.pt", entry.Data["to"])
	assert.Equal(t, id, entry.Data["message_id"])
}

func TestSendGridPrepare(t *testing.T) {
	sg := NewSendGrid("key", "3D com Propósito", "noreply@example.pt")

	m := sg.prepare(&Message{
		ToName:  "Ana",
		ToEmail: "ana@example.pt",
		Subject: "Peças atribuídas",
		HTML:    "<p>html</p>",
		Text:    "text",
	})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "Peças atribuídas", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "ana@example.pt", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "noreply@example.pt", m.From.Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}
