package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/config"
	"github.com/thenamerahulkr/cems/internal/domain"
)

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	payload := map[string]interface{}{
		"name":        "Asha",
		"role":        "student",
		"eventTitle":  "Hackathon",
		"eventDate":   "Mon, 02 Mar 2026",
		"venue":       "Hall A",
		"amount":      "199.00",
		"paymentId":   "pay_1",
		"qrCode":      "data:image/png;base64,iVBORw0KGgo=",
		"frontendUrl": "http://localhost:5173",
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			msg, err := r.Render(domain.OutboxMessage{
				Kind:      kind,
				Recipient: "asha@college.edu",
				Subject:   "subject",
				Payload:   payload,
			})
			require.NoError(t, err)

			assert.Equal(t, "asha@college.edu", msg.ToAddress)
			assert.Equal(t, "Asha", msg.ToName)
			assert.Contains(t, msg.HTML, "Hi Asha")
		})
	}

	t.Run("qr image survives escaping", func(t *testing.T) {
		msg, err := r.Render(domain.OutboxMessage{Kind: domain.MailRegistrationConfirmed, Payload: payload})
		require.NoError(t, err)
		assert.Contains(t, msg.HTML, `src="data:image/png;base64,iVBORw0KGgo="`)
	})

	t.Run("foreign urls are dropped", func(t *testing.T) {
		evil := map[string]interface{}{"name": "A", "qrCode": "javascript:alert(1)"}
		msg, err := r.Render(domain.OutboxMessage{Kind: domain.MailRegistrationConfirmed, Payload: evil})
		require.NoError(t, err)
		assert.NotContains(t, msg.HTML, "javascript:")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := r.Render(domain.OutboxMessage{Kind: "spam"})
		assert.Error(t, err)
	})
}

func TestSendGrid_prepare(t *testing.T) {
	s := NewSendGrid("key", "CEMS", "no-reply@cems.local")

	m := s.prepare(Message{ToName: "Asha", ToAddress: "asha@college.edu", Subject: "Hi", HTML: "<p>x</p>", Text: "x"})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "Hi", m.Personalizations[0].Subject)
	assert.Equal(t, "asha@college.edu", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "no-reply@cems.local", m.From.Address)
	assert.Len(t, m.Content, 2)
}

func TestConsole_Send(t *testing.T) {
	assert.NoError(t, NewConsole(zap.NewNop()).Send(context.Background(), Message{ToAddress: "a@b.c"}))
}

func TestNew(t *testing.T) {
	assert.IsType(t, &SendGrid{}, New(&config.MailConfig{Provider: "sendgrid", SendgridAPIKey: "key"}))
	assert.IsType(t, &Console{}, New(&config.MailConfig{Provider: "console"}))
}
