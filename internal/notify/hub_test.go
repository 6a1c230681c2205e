package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenamerahulkr/cems/internal/domain"
)

func newTestClient(h *Hub, userID uint) *Client {
	c := &Client{hub: h, send: make(chan []byte, 4), userID: userID}
	h.register <- c
	return c
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHub_Publish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	alice := newTestClient(h, 1)
	aliceTab := newTestClient(h, 1)
	bob := newTestClient(h, 2)

	h.Publish(domain.Notification{ID: 10, UserID: 1, Message: "Registered", Type: domain.NotificationSuccess})

	for _, c := range []*Client{alice, aliceTab} {
		var got struct {
			Type         string              `json:"type"`
			Notification domain.Notification `json:"notification"`
		}
		require.NoError(t, json.Unmarshal(receive(t, c), &got))
		assert.Equal(t, "notification", got.Type)
		assert.Equal(t, uint(10), got.Notification.ID)
	}

	select {
	case <-bob.send:
		t.Fatal("bob received alice's notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	c := newTestClient(h, 1)
	h.unregister <- c

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := NewHub()
	go h.Run(ctx)

	c := newTestClient(h, 1)
	cancel()

	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, ok := <-c.send
	assert.False(t, ok)
}
