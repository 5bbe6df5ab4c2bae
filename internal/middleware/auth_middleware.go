// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"invitera-service/internal/domain/user"
	"invitera-service/internal/pkg/jwt"
	"invitera-service/internal/pkg/response"
	"invitera-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	loginRoute = "/auth/login"
	homeRoute  = "/"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyAccessToken(tokenString string) (*jwt.Claims, error)
}

// SessionChecker resolves a verified token against live session state.
type SessionChecker interface {
	GetSession(ctx context.Context, identityID int64, jti string) (*session.SessionData, error)
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

// ProfileFinder checks whether a profile row exists for an identity.
type ProfileFinder interface {
	FindByIdentity(ctx context.Context, identityID int64) (*user.Profile, error)
}

// HintWriter records the path a logged-out visitor was gated away from.
type HintWriter interface {
	Set(ctx context.Context, clientID, path string) error
}

type AuthMiddleware struct {
	verifier TokenVerifier
	sessions SessionChecker
	profiles ProfileFinder
	hints    HintWriter
	logger   *zap.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, sessions SessionChecker, profiles ProfileFinder, hints HintWriter, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		sessions: sessions,
		profiles: profiles,
		hints:    hints,
		logger:   logger,
	}
}

// RequireAuth gates member-only routes. It fails closed: no token, a bad
// token, a revoked session, or an errored session check all end the same
// way, with the intended destination recorded and a redirect to login.
// Only a confirmed live session lets the request through.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.resolveSession(c)
		if !ok {
			m.storeHint(c)
			response.Redirect(c, http.StatusUnauthorized, loginRoute, "authentication required")
			return
		}

		setSessionContext(c, claims)
		c.Next()
	}
}

// AnonymousOnly gates the login and signup pages. It fails open: only a
// confirmed live session redirects home; an absent token or an errored
// session check lets the page render, since blocking a logged-out
// visitor from the login form would lock them out entirely.
func (m *AuthMiddleware) AnonymousOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		if blacklisted, err := m.sessions.IsTokenBlacklisted(c.Request.Context(), claims.ID); err != nil || blacklisted {
			c.Next()
			return
		}

		if _, err := m.sessions.GetSession(c.Request.Context(), claims.IdentityID, claims.ID); err != nil {
			c.Next()
			return
		}

		response.Redirect(c, http.StatusOK, homeRoute, "already signed in")
	}
}

// AdminOnly requires an admin role on the profile row. MUST be used
// after RequireAuth. A missing row or a plain user role redirects home
// rather than erroring.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		identityID := MustGetIdentityID(c)

		profile, err := m.profiles.FindByIdentity(c.Request.Context(), identityID)
		if err != nil || !profile.IsAdmin() {
			response.Redirect(c, http.StatusForbidden, homeRoute, "admin access required")
			return
		}

		c.Set("role", string(profile.Role))
		c.Next()
	}
}

// resolveSession runs the full check chain: signature, blacklist, live
// session. Every failure collapses to !ok so callers cannot accidentally
// treat one failure mode more leniently than another.
func (m *AuthMiddleware) resolveSession(c *gin.Context) (*jwt.Claims, bool) {
	token := extractToken(c)
	if token == "" {
		return nil, false
	}

	claims, err := m.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, false
	}

	blacklisted, err := m.sessions.IsTokenBlacklisted(c.Request.Context(), claims.ID)
	if err != nil {
		m.logger.Warn("blacklist check failed", zap.Error(err))
		return nil, false
	}
	if blacklisted {
		return nil, false
	}

	if _, err := m.sessions.GetSession(c.Request.Context(), claims.IdentityID, claims.ID); err != nil {
		return nil, false
	}

	return claims, true
}

// storeHint records where the visitor was heading so login can send them
// back. One hint per client, last write wins.
func (m *AuthMiddleware) storeHint(c *gin.Context) {
	clientID := ClientID(c)
	if clientID == "" {
		return
	}

	path := c.GetHeader("X-Requested-Page")
	if !isSafePath(path) {
		path = c.Request.URL.RequestURI()
	}
	if !isSafePath(path) {
		return
	}

	if err := m.hints.Set(c.Request.Context(), clientID, path); err != nil {
		m.logger.Warn("failed to store redirect hint", zap.Error(err))
	}
}

// isSafePath accepts only same-site paths as replayable destinations.
// "//host" and "/\host" parse as protocol-relative URLs in browsers, so
// a stored hint with either prefix would become an off-site redirect.
func isSafePath(path string) bool {
	if !strings.HasPrefix(path, "/") {
		return false
	}
	return !strings.HasPrefix(path, "//") && !strings.HasPrefix(path, "/\\")
}

func setSessionContext(c *gin.Context, claims *jwt.Claims) {
	c.Set("identity_id", claims.IdentityID)
	c.Set("jti", claims.ID)
	c.Set("provider", claims.Provider)
	c.Set("session_purpose", claims.SessionPurpose)
	if claims.ExpiresAt != nil {
		c.Set("token_expires_at", claims.ExpiresAt.Time)
	}
}
