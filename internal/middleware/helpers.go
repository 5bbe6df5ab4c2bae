// internal/middleware/helpers.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// clientIDCookie identifies a browser across logins so its redirect hint
// survives the login round trip.
const clientIDCookie = "iv_client_id"

const clientIDMaxAge = 180 * 24 * int(time.Hour/time.Second)

// extractToken pulls the bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ClientID returns the per-browser identifier, minting the cookie on
// first contact.
func ClientID(c *gin.Context) string {
	if id, err := c.Cookie(clientIDCookie); err == nil && id != "" {
		return id
	}

	id := ulid.Make().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(clientIDCookie, id, clientIDMaxAge, "/", "", false, true)
	return id
}

// GetIdentityID gets the identity ID from context
func GetIdentityID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("identity_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetJTI gets the JTI from context
func GetJTI(c *gin.Context) (string, bool) {
	v, exists := c.Get("jti")
	if !exists {
		return "", false
	}
	jti, ok := v.(string)
	return jti, ok
}

// GetTokenExpiry gets the access token expiry from context
func GetTokenExpiry(c *gin.Context) (time.Time, bool) {
	v, exists := c.Get("token_expires_at")
	if !exists {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// MustGetIdentityID gets identity ID from context or panics
func MustGetIdentityID(c *gin.Context) int64 {
	identityID, exists := GetIdentityID(c)
	if !exists {
		panic("identity_id not found in context")
	}
	return identityID
}

// MustGetJTI gets JTI from context or panics
func MustGetJTI(c *gin.Context) string {
	jti, exists := GetJTI(c)
	if !exists {
		panic("jti not found in context")
	}
	return jti
}
