package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPair(t *testing.T) (*Generator, *Verifier) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	gen := NewGenerator(key, "invitera", "invitera-users", "test-key", time.Hour)
	ver := NewVerifier(&key.PublicKey, "invitera", "invitera-users")
	return gen, ver
}

func TestAccessTokenRoundTrip(t *testing.T) {
	gen, ver := newTestPair(t)

	token, jti, err := gen.GenerateAccessToken(42, "local")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := ver.VerifyAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.IdentityID)
	assert.Equal(t, "local", claims.Provider)
	assert.Equal(t, "access", claims.SessionPurpose)
	assert.Equal(t, jti, claims.ID)
	assert.False(t, claims.IsTemp)
}

func TestVerifyAccessTokenRejectsOtherPurposes(t *testing.T) {
	gen, ver := newTestPair(t)

	refresh, _, err := gen.GenerateRefreshToken(42, "local")
	require.NoError(t, err)
	_, err = ver.VerifyAccessToken(refresh)
	assert.Error(t, err)

	verification, _, err := gen.GenerateEmailVerificationToken(42)
	require.NoError(t, err)
	_, err = ver.VerifyAccessToken(verification)
	assert.Error(t, err)

	// But the dedicated verifier accepts it.
	claims, err := ver.VerifyEmailVerificationToken(verification)
	require.NoError(t, err)
	assert.True(t, claims.IsTemp)
}

func TestVerifierRejectsWrongIssuerAndAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	gen := NewGenerator(key, "someone-else", "invitera-users", "", time.Hour)
	ver := NewVerifier(&key.PublicKey, "invitera", "invitera-users")

	token, _, err := gen.GenerateAccessToken(1, "local")
	require.NoError(t, err)
	_, err = ver.Verify(token)
	assert.Error(t, err)

	gen = NewGenerator(key, "invitera", "other-audience", "", time.Hour)
	token, _, err = gen.GenerateAccessToken(1, "local")
	require.NoError(t, err)
	_, err = ver.Verify(token)
	assert.Error(t, err)
}

func TestVerifierRejectsTamperedToken(t *testing.T) {
	gen, ver := newTestPair(t)

	token, _, err := gen.GenerateAccessToken(42, "local")
	require.NoError(t, err)

	_, err = ver.Verify(token + "x")
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	gen := NewGenerator(key, "invitera", "invitera-users", "", -time.Minute)
	ver := NewVerifier(&key.PublicKey, "invitera", "invitera-users")

	token, _, err := gen.GenerateAccessToken(42, "local")
	require.NoError(t, err)

	_, err = ver.Verify(token)
	assert.Error(t, err)
}
