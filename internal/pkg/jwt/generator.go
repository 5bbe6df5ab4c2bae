// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

type Generator struct {
	priv     *rsa.PrivateKey
	issuer   string
	audience string
	kid      string // key id for rotation
	Ttl      time.Duration
}

func NewGenerator(priv *rsa.PrivateKey, issuer, audience, kid string, ttl time.Duration) *Generator {
	return &Generator{
		priv:     priv,
		issuer:   issuer,
		audience: audience,
		kid:      kid,
		Ttl:      ttl,
	}
}

// Generate creates a new signed token and returns it with its JTI.
func (g *Generator) Generate(identityID int64, provider, purpose string, isTemp bool, ttl time.Duration) (string, string, error) {
	if g.priv == nil {
		return "", "", fmt.Errorf("jwt generator has nil private key")
	}

	now := time.Now()
	jti := ulid.Make().String()
	if ttl <= 0 {
		ttl = g.Ttl
	}

	claims := &Claims{
		IdentityID:     identityID,
		Provider:       provider,
		SessionPurpose: purpose,
		IsTemp:         isTemp,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   fmt.Sprintf("%d", identityID),
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.kid != "" {
		tok.Header["kid"] = g.kid
	}

	signed, err := tok.SignedString(g.priv)
	return signed, jti, err
}

// GenerateAccessToken generates a standard access token
func (g *Generator) GenerateAccessToken(identityID int64, provider string) (string, string, error) {
	return g.Generate(identityID, provider, "access", false, g.Ttl)
}

// GenerateRefreshToken generates a refresh token (longer TTL)
func (g *Generator) GenerateRefreshToken(identityID int64, provider string) (string, string, error) {
	return g.Generate(identityID, provider, "refresh", false, 60*24*time.Hour)
}

// GenerateEmailVerificationToken generates a short-lived token embedded in
// the verification link.
func (g *Generator) GenerateEmailVerificationToken(identityID int64) (string, string, error) {
	return g.Generate(identityID, "", "email_verification", true, 24*time.Hour)
}
