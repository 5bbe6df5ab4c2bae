package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invitera-service/internal/domain/user"
	xerrors "invitera-service/internal/pkg/errors"
	"invitera-service/internal/pkg/jwt"
	"invitera-service/internal/pkg/response"
	"invitera-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ----- fakes -----

type fakeVerifier struct {
	claims *jwt.Claims
	err    error
}

func (f *fakeVerifier) VerifyAccessToken(string) (*jwt.Claims, error) {
	return f.claims, f.err
}

type fakeSessions struct {
	session     *session.SessionData
	sessionErr  error
	blacklisted bool
	checkErr    error
}

func (f *fakeSessions) GetSession(context.Context, int64, string) (*session.SessionData, error) {
	return f.session, f.sessionErr
}

func (f *fakeSessions) IsTokenBlacklisted(context.Context, string) (bool, error) {
	return f.blacklisted, f.checkErr
}

type fakeProfiles struct {
	profile *user.Profile
	err     error
}

func (f *fakeProfiles) FindByIdentity(context.Context, int64) (*user.Profile, error) {
	return f.profile, f.err
}

type fakeHints struct {
	paths map[string]string
	err   error
}

func (f *fakeHints) Set(_ context.Context, clientID, path string) error {
	if f.err != nil {
		return f.err
	}
	if f.paths == nil {
		f.paths = map[string]string{}
	}
	f.paths[clientID] = path
	return nil
}

func validClaims(identityID int64) *jwt.Claims {
	return &jwt.Claims{
		IdentityID:     identityID,
		SessionPurpose: "access",
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        "01JTESTJTI",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func liveSession(identityID int64) *session.SessionData {
	return &session.SessionData{
		JTI:        "01JTESTJTI",
		IdentityID: identityID,
		IsActive:   true,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func newTestRouter(m *AuthMiddleware, gate gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", gate, func(c *gin.Context) {
		id, _ := GetIdentityID(c)
		response.Success(c, http.StatusOK, "ok", gin.H{"identity_id": id})
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, header map[string]string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

// ----- RequireAuth -----

func TestRequireAuthMissingTokenRedirectsToLogin(t *testing.T) {
	hints := &fakeHints{}
	m := NewAuthMiddleware(&fakeVerifier{err: errors.New("no token")}, &fakeSessions{}, &fakeProfiles{}, hints, zap.NewNop())
	r := newTestRouter(m, m.RequireAuth())

	w, body := doRequest(t, r, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/auth/login", body.Redirect)
}

func TestRequireAuthStoresIntendedDestination(t *testing.T) {
	hints := &fakeHints{}
	m := NewAuthMiddleware(&fakeVerifier{err: errors.New("bad token")}, &fakeSessions{}, &fakeProfiles{}, hints, zap.NewNop())
	r := newTestRouter(m, m.RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer junk")
	req.Header.Set("X-Requested-Page", "/services/wedding")
	req.AddCookie(&http.Cookie{Name: clientIDCookie, Value: "client-1"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/services/wedding", hints.paths["client-1"])
}

func TestRequireAuthIgnoresOffSiteRequestedPage(t *testing.T) {
	// A protocol-relative header value must never become the stored
	// destination; the real request path is used instead.
	for _, evil := range []string{"//evil.example/phish", "/\\evil.example", "https://evil.example"} {
		hints := &fakeHints{}
		m := NewAuthMiddleware(&fakeVerifier{err: errors.New("bad token")}, &fakeSessions{}, &fakeProfiles{}, hints, zap.NewNop())
		r := newTestRouter(m, m.RequireAuth())

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer junk")
		req.Header.Set("X-Requested-Page", evil)
		req.AddCookie(&http.Cookie{Name: clientIDCookie, Value: "client-1"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", evil)
		assert.Equal(t, "/protected", hints.paths["client-1"], "header %q", evil)
	}
}

func TestRequireAuthRedirectsOnSentinelNoSession(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{sessionErr: xerrors.ErrNoSession},
		&fakeProfiles{},
		&fakeHints{},
		zap.NewNop(),
	)
	r := newTestRouter(m, m.RequireAuth())

	w, body := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/auth/login", body.Redirect)
}

func TestRequireAuthFailsClosedOnSessionCheckError(t *testing.T) {
	// A live-looking token whose session lookup errors must still be
	// turned away.
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{sessionErr: errors.New("redis down")},
		&fakeProfiles{},
		&fakeHints{},
		zap.NewNop(),
	)
	r := newTestRouter(m, m.RequireAuth())

	w, body := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/auth/login", body.Redirect)
}

func TestRequireAuthFailsClosedOnBlacklistError(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{session: liveSession(7), checkErr: errors.New("redis down")},
		&fakeProfiles{},
		&fakeHints{},
		zap.NewNop(),
	)
	r := newTestRouter(m, m.RequireAuth())

	w, _ := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsBlacklistedToken(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{session: liveSession(7), blacklisted: true},
		&fakeProfiles{},
		&fakeHints{},
		zap.NewNop(),
	)
	r := newTestRouter(m, m.RequireAuth())

	w, _ := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthAllowsLiveSession(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{session: liveSession(7)},
		&fakeProfiles{},
		&fakeHints{},
		zap.NewNop(),
	)
	r := newTestRouter(m, m.RequireAuth())

	w, body := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
}

// ----- AnonymousOnly -----

func TestAnonymousOnlyAllowsVisitorWithoutToken(t *testing.T) {
	m := NewAuthMiddleware(&fakeVerifier{err: errors.New("no token")}, &fakeSessions{}, &fakeProfiles{}, &fakeHints{}, zap.NewNop())
	r := newTestRouter(m, m.AnonymousOnly())

	w, _ := doRequest(t, r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnonymousOnlyRedirectsLiveSessionHome(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{session: liveSession(7)},
		&fakeProfiles{},
		&fakeHints{},
		zap.NewNop(),
	)
	r := newTestRouter(m, m.AnonymousOnly())

	w, body := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/", body.Redirect)
}

func TestAnonymousOnlyFailsOpenOnSessionCheckError(t *testing.T) {
	// Unlike RequireAuth, an errored check lets the page render: a
	// visitor who cannot be confirmed as logged in must still reach the
	// login form.
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{sessionErr: errors.New("redis down")},
		&fakeProfiles{},
		&fakeHints{},
		zap.NewNop(),
	)
	r := newTestRouter(m, m.AnonymousOnly())

	w, body := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body.Redirect)
	assert.True(t, body.Success)
}

func TestAnonymousOnlyFailsOpenOnBlacklistError(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{session: liveSession(7), checkErr: errors.New("redis down")},
		&fakeProfiles{},
		&fakeHints{},
		zap.NewNop(),
	)
	r := newTestRouter(m, m.AnonymousOnly())

	w, body := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body.Redirect)
}

// ----- AdminOnly -----

func adminChain(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", m.RequireAuth(), m.AdminOnly(), func(c *gin.Context) {
		response.Success(c, http.StatusOK, "ok", nil)
	})
	return r
}

func TestAdminOnlyRedirectsPlainUserHome(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{session: liveSession(7)},
		&fakeProfiles{profile: &user.Profile{IdentityID: 7, Role: user.RoleUser}},
		&fakeHints{},
		zap.NewNop(),
	)
	r := adminChain(m)

	w, body := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "/", body.Redirect)
}

func TestAdminOnlyRedirectsMissingProfileHome(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{session: liveSession(7)},
		&fakeProfiles{err: xerrors.ErrNotFound},
		&fakeHints{},
		zap.NewNop(),
	)
	r := adminChain(m)

	w, body := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "/", body.Redirect)
}

func TestAdminOnlyAllowsAdmin(t *testing.T) {
	m := NewAuthMiddleware(
		&fakeVerifier{claims: validClaims(7)},
		&fakeSessions{session: liveSession(7)},
		&fakeProfiles{profile: &user.Profile{IdentityID: 7, Role: user.RoleAdmin}},
		&fakeHints{},
		zap.NewNop(),
	)
	r := adminChain(m)

	w, _ := doRequest(t, r, map[string]string{"Authorization": "Bearer token"})
	assert.Equal(t, http.StatusOK, w.Code)
}

// ----- helpers -----

func TestExtractToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			c.Request.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractToken(c), "header %q", tt.header)
	}
}
