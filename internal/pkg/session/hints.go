// internal/pkg/session/hints.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hintTTL bounds how long a stored destination survives. A hint that was
// never consumed (the user abandoned the login detour) must not resurface
// days later.
const hintTTL = 30 * time.Minute

// HintStore holds at most one redirect hint per client: the path a
// logged-out visitor was gated away from, replayed once after login.
// Later writes overwrite earlier ones; Consume deletes on read.
type HintStore struct {
	client *redis.Client
}

func NewHintStore(client *redis.Client) *HintStore {
	return &HintStore{client: client}
}

// Set stores the intended destination for a client, replacing any
// previous hint (last write wins).
func (h *HintStore) Set(ctx context.Context, clientID, path string) error {
	if clientID == "" || path == "" {
		return nil
	}
	return h.client.Set(ctx, h.key(clientID), path, hintTTL).Err()
}

// Consume returns the stored hint and deletes it, so a second login
// without an intervening gate-out goes home rather than to a stale path.
func (h *HintStore) Consume(ctx context.Context, clientID string) (string, error) {
	if clientID == "" {
		return "", nil
	}

	path, err := h.client.GetDel(ctx, h.key(clientID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume redirect hint: %w", err)
	}
	return path, nil
}

func (h *HintStore) key(clientID string) string {
	return fmt.Sprintf("redirect_hint:%s", clientID)
}
