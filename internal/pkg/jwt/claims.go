// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims
type Claims struct {
	IdentityID     int64  `json:"identity_id"`
	Provider       string `json:"provider,omitempty"` // local, google
	SessionPurpose string `json:"session_purpose"`    // access, refresh, email_verification
	IsTemp         bool   `json:"is_temp"`
	jwt.RegisteredClaims
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		// If audience is required but missing
		return !required
	}

	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}

	return false
}
