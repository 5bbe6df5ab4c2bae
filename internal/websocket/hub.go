// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AuthEvent is pushed to a user's connected tabs when their session state
// changes. Gates on the client subscribe to these to mirror the
// session-change subscription of the auth provider: a "session:ended"
// event while a protected page is mounted triggers the login redirect.
type AuthEvent struct {
	Type   string    `json:"type"` // session:ended, session:ended_all
	JTI    string    `json:"jti,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Hub tracks connected clients per identity and fans auth events out to
// them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes client registration until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.identityID] == nil {
				h.clients[c.identityID] = make(map[*Client]struct{})
			}
			h.clients[c.identityID][c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[c.identityID]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.send)
					if len(set) == 0 {
						delete(h.clients, c.identityID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// SessionEnded notifies a user's clients that one session (or all, when
// jti is empty) is gone.
func (h *Hub) SessionEnded(identityID int64, jti, reason string) {
	eventType := "session:ended"
	if jti == "" {
		eventType = "session:ended_all"
	}

	h.broadcast(identityID, AuthEvent{
		Type:   eventType,
		JTI:    jti,
		Reason: reason,
		At:     time.Now(),
	})
}

func (h *Hub) broadcast(identityID int64, event AuthEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal auth event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[identityID] {
		select {
		case c.send <- payload:
		default:
			// Slow consumer, drop the event rather than block the hub.
			h.logger.Warn("dropping auth event for slow client",
				zap.Int64("identity_id", identityID))
		}
	}
}

// ConnectedClients reports how many sockets an identity has open.
func (h *Hub) ConnectedClients(identityID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[identityID])
}
