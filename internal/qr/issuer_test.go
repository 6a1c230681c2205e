package qr

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_IssueAndParse(t *testing.T) {
	issuer := NewIssuer("qr-secret", 24*time.Hour, 128)

	ticket, err := issuer.Issue(1, 2, 3, time.Now().Add(72*time.Hour))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(ticket.DataURL, dataURLPrefix))
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ticket.DataURL, dataURLPrefix))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	claims, err := issuer.Parse(ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.EventID)
	assert.Equal(t, uint(2), claims.UserID)
	assert.Equal(t, uint(3), claims.RegistrationID)
	assert.NotZero(t, claims.Timestamp)
}

func TestIssuer_Parse(t *testing.T) {
	issuer := NewIssuer("qr-secret", time.Hour, 0)

	ticket, err := issuer.Issue(1, 2, 3, time.Now())
	require.NoError(t, err)

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(ticket.Token, ".")
		require.Len(t, parts, 3)
		forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"eventId":1,"userId":99,"registrationId":3}`)) + "." + parts[2]

		_, err := issuer.Parse(forged)
		assert.ErrorIs(t, err, ErrInvalidTicket)
	})

	t.Run("other key", func(t *testing.T) {
		_, err := NewIssuer("other", time.Hour, 0).Parse(ticket.Token)
		assert.ErrorIs(t, err, ErrInvalidTicket)
	})

	t.Run("expired after the event", func(t *testing.T) {
		later := NewIssuer("qr-secret", time.Hour, 0)
		later.now = func() time.Time { return time.Now().Add(3 * time.Hour) }

		_, err := later.Parse(ticket.Token)
		assert.ErrorIs(t, err, ErrTicketExpired)
	})
}

func TestIssuer_PastEventStillGetsGrace(t *testing.T) {
	issuer := NewIssuer("qr-secret", time.Hour, 0)

	ticket, err := issuer.Issue(1, 2, 3, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)

	_, err = issuer.Parse(ticket.Token)
	assert.NoError(t, err)
}
