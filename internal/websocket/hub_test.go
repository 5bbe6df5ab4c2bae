package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func register(t *testing.T, hub *Hub, identityID int64, jti string) *Client {
	t.Helper()

	c := &Client{
		hub:        hub,
		identityID: identityID,
		jti:        jti,
		send:       make(chan []byte, 16),
	}
	before := hub.ConnectedClients(identityID)
	hub.register <- c

	require.Eventually(t, func() bool {
		return hub.ConnectedClients(identityID) == before+1
	}, time.Second, 5*time.Millisecond)
	return c
}

func receiveEvent(t *testing.T, c *Client) AuthEvent {
	t.Helper()

	select {
	case payload := <-c.send:
		var event AuthEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return AuthEvent{}
	}
}

func TestSessionEndedReachesAllTabs(t *testing.T) {
	hub := startHub(t)

	tab1 := register(t, hub, 7, "jti-1")
	tab2 := register(t, hub, 7, "jti-1")
	other := register(t, hub, 8, "jti-2")

	hub.SessionEnded(7, "jti-1", "logout")

	for _, tab := range []*Client{tab1, tab2} {
		event := receiveEvent(t, tab)
		assert.Equal(t, "session:ended", event.Type)
		assert.Equal(t, "jti-1", event.JTI)
		assert.Equal(t, "logout", event.Reason)
	}

	select {
	case <-other.send:
		t.Fatal("event leaked to another identity")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionEndedAllOmitsJTI(t *testing.T) {
	hub := startHub(t)
	tab := register(t, hub, 7, "jti-1")

	hub.SessionEnded(7, "", "logout_all")

	event := receiveEvent(t, tab)
	assert.Equal(t, "session:ended_all", event.Type)
	assert.Empty(t, event.JTI)
}

func TestUnregisterDropsClient(t *testing.T) {
	hub := startHub(t)
	tab := register(t, hub, 7, "jti-1")

	hub.unregister <- tab

	require.Eventually(t, func() bool {
		return hub.ConnectedClients(7) == 0
	}, time.Second, 5*time.Millisecond)

	// The send channel is closed on unregister; a broadcast now must not
	// panic or resurrect the client.
	hub.SessionEnded(7, "jti-1", "logout")
	assert.Equal(t, 0, hub.ConnectedClients(7))
}
