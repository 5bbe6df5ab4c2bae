// internal/service/auth/oauth.go
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"invitera-service/internal/domain/auth"
	xerrors "invitera-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const oauthStateTTL = 10 * time.Minute

// googleUserInfo is the payload of Google's userinfo endpoint.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// GoogleAuthURL generates the consent-screen URL with a single-use state
// parameter stored in Redis.
func (s *AuthService) GoogleAuthURL(ctx context.Context) (string, error) {
	if s.oauthCfg == nil || s.oauthCfg.ClientID == "" {
		return "", fmt.Errorf("google oauth is not configured")
	}

	state := ulid.Make().String()
	if err := s.rdb.Set(ctx, oauthStateKey(state), "1", oauthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	return s.oauthCfg.AuthCodeURL(state), nil
}

// HandleGoogleCallback completes the Google sign-in: validates state,
// exchanges the code, upserts the identity and provider records, and
// establishes a session. Any failure surfaces as an error; the handler
// maps every one of them back to the login page.
func (s *AuthService) HandleGoogleCallback(ctx context.Context, state, code, clientID, ip, ua string) (*auth.AuthResponse, error) {
	if state == "" || code == "" {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "missing state or code")
	}

	// GetDel makes each state single use.
	if err := s.rdb.GetDel(ctx, oauthStateKey(state)).Err(); err != nil {
		if err == redis.Nil {
			return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "unknown or expired oauth state")
		}
		return nil, fmt.Errorf("failed to check oauth state: %w", err)
	}

	token, err := s.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "code exchange failed")
	}

	info, err := s.fetchGoogleUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "google account has no email")
	}

	identity, err := s.upsertGoogleIdentity(ctx, info)
	if err != nil {
		return nil, err
	}

	return s.establishSession(ctx, identity, "google", clientID, ip, ua)
}

func (s *AuthService) fetchGoogleUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return &info, nil
}

// upsertGoogleIdentity finds or creates the identity behind a Google
// login and keeps the provider metadata fresh, since the completion form
// prefills from it.
func (s *AuthService) upsertGoogleIdentity(ctx context.Context, info *googleUserInfo) (*auth.Identity, error) {
	email := strings.ToLower(info.Email)

	metadata := map[string]interface{}{
		"provider_user_id": info.ID,
		"full_name":        info.Name,
		"given_name":       info.GivenName,
		"family_name":      info.FamilyName,
		"picture":          info.Picture,
	}

	identity, err := s.authRepo.FindIdentityByEmail(ctx, email)
	if err != nil && !xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	if identity == nil || xerrors.Is(err, xerrors.ErrNotFound) {
		identity = &auth.Identity{
			Email:  sql.NullString{String: email, Valid: true},
			Status: "active",
		}
		if err := s.authRepo.CreateIdentity(ctx, identity); err != nil {
			return nil, err
		}

		provider := &auth.Provider{
			IdentityID:     identity.ID,
			Provider:       "google",
			ProviderUserID: sql.NullString{String: info.ID, Valid: true},
			ProviderEmail:  identity.Email,
			Metadata:       metadata,
			IsPrimary:      true,
		}
		if err := s.authRepo.CreateProvider(ctx, provider); err != nil {
			return nil, err
		}
	} else {
		provider, err := s.authRepo.FindProviderByIdentityAndType(ctx, identity.ID, "google")
		switch {
		case err == nil:
			if err := s.authRepo.UpdateProviderMetadata(ctx, provider.ID, metadata); err != nil {
				s.logger.Warn("failed to refresh google metadata", zap.Error(err))
			}
		case xerrors.Is(err, xerrors.ErrNotFound):
			// Existing local account linking Google for the first time.
			linked := &auth.Provider{
				IdentityID:     identity.ID,
				Provider:       "google",
				ProviderUserID: sql.NullString{String: info.ID, Valid: true},
				ProviderEmail:  identity.Email,
				Metadata:       metadata,
			}
			if err := s.authRepo.CreateProvider(ctx, linked); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	// Google asserts the address; no separate verification round trip.
	if info.VerifiedEmail && !identity.EmailVerified {
		if err := s.authRepo.MarkEmailVerified(ctx, identity.ID); err != nil {
			return nil, err
		}
		identity.EmailVerified = true
		identity.Status = "active"
	}

	return identity, nil
}

func oauthStateKey(state string) string {
	return fmt.Sprintf("oauth_state:%s", state)
}
