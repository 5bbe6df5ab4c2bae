// internal/pkg/session/types.go
package session

import "time"

type SessionData struct {
	JTI            string    `json:"jti"`
	IdentityID     int64     `json:"identity_id"`
	SessionID      int64     `json:"session_id"` // DB session ID
	Email          string    `json:"email"`
	EmailVerified  bool      `json:"email_verified"`
	Provider       string    `json:"provider"` // local, google
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	IsActive       bool      `json:"is_active"`
}
