// internal/service/auth/auth.go
package auth

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"invitera-service/internal/domain/auth"
	xerrors "invitera-service/internal/pkg/errors"
	"invitera-service/internal/pkg/jwt"
	"invitera-service/internal/pkg/session"
	"invitera-service/internal/repository/postgres"
	"invitera-service/internal/service/email"
	"invitera-service/internal/websocket"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// Routes the gating flow points clients at. These travel in the
	// redirect_to field of auth responses.
	routeHome            = "/"
	routeLogin           = "/auth/login"
	routeVerifyEmail     = "/auth/verify-email"
	routeCompleteProfile = "/auth/complete-profile"
)

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// HintConsumer hands back the path a client was gated away from,
// deleting it in the same step.
type HintConsumer interface {
	Consume(ctx context.Context, clientID string) (string, error)
}

type AuthService struct {
	authRepo    *postgres.AuthRepository
	profileRepo *postgres.ProfileRepository
	sessionMgr  *session.Manager
	hints       HintConsumer
	limiter     *session.RateLimiter
	jwtMgr      *jwt.Manager
	emailSender *email.EmailSender
	hub         *websocket.Hub
	oauthCfg    *oauth2.Config
	rdb         *redis.Client
	baseURL     string
	logger      *zap.Logger
}

func NewAuthService(
	authRepo *postgres.AuthRepository,
	profileRepo *postgres.ProfileRepository,
	sessionMgr *session.Manager,
	hints HintConsumer,
	limiter *session.RateLimiter,
	jwtMgr *jwt.Manager,
	emailSender *email.EmailSender,
	hub *websocket.Hub,
	oauthCfg *oauth2.Config,
	rdb *redis.Client,
	baseURL string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		authRepo:    authRepo,
		profileRepo: profileRepo,
		sessionMgr:  sessionMgr,
		hints:       hints,
		limiter:     limiter,
		jwtMgr:      jwtMgr,
		emailSender: emailSender,
		hub:         hub,
		oauthCfg:    oauthCfg,
		rdb:         rdb,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// Signup registers a local-provider account. Validation failures are
// returned itemized and nothing is written to the store; the caller gets
// every failed rule at once rather than one per attempt.
func (s *AuthService) Signup(ctx context.Context, req *auth.SignupRequest) (*auth.SignupResponse, []string, error) {
	var failures []string

	if strings.TrimSpace(req.FirstName) == "" {
		failures = append(failures, "First name is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		failures = append(failures, "Last name is required")
	}
	if !emailRx.MatchString(req.Email) {
		failures = append(failures, "A valid email address is required")
	}
	if _, err := parseSignupGender(req.Gender); err != nil {
		failures = append(failures, "Gender must be male, female or other")
	}
	failures = append(failures, ValidatePassword(req.Password)...)
	if req.Password != req.ConfirmPassword {
		failures = append(failures, "Passwords do not match")
	}
	if len(failures) > 0 {
		return nil, failures, nil
	}

	exists, err := s.authRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("signup email check: %w", err)
	}
	if exists {
		return nil, nil, xerrors.ErrDuplicateEntry
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("signup password hash: %w", err)
	}

	identity := &auth.Identity{
		Email:  sql.NullString{String: strings.ToLower(req.Email), Valid: true},
		Status: "pending_verification",
	}
	if err := s.authRepo.CreateIdentity(ctx, identity); err != nil {
		return nil, nil, err
	}

	// Name and gender ride along as provider metadata until the
	// completion flow materializes them into a profile row.
	provider := &auth.Provider{
		IdentityID:    identity.ID,
		Provider:      "local",
		ProviderEmail: identity.Email,
		PasswordHash:  sql.NullString{String: hash, Valid: true},
		Metadata: map[string]interface{}{
			"first_name": strings.TrimSpace(req.FirstName),
			"last_name":  strings.TrimSpace(req.LastName),
			"gender":     req.Gender,
		},
		IsPrimary: true,
	}
	if err := s.authRepo.CreateProvider(ctx, provider); err != nil {
		return nil, nil, err
	}

	if err := s.sendVerificationEmail(ctx, identity.ID, identity.Email.String); err != nil {
		// Account exists; the user can ask for a resend.
		s.logger.Error("failed to send verification email",
			zap.Int64("identity_id", identity.ID), zap.Error(err))
	}

	return &auth.SignupResponse{
		IdentityID: identity.ID,
		RedirectTo: verifyEmailRedirect(identity.Email.String),
	}, nil, nil
}

// Login authenticates a local-provider account and establishes a session.
// The response's redirect_to resolves, in order: unverified email to the
// verification page, missing profile row to the completion form, a stored
// redirect hint to the page the user was gated away from, otherwise home.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthResponse, error) {
	allowed, _, err := s.limiter.CheckLoginAttempt(ctx, req.IPAddress, req.Email)
	if err != nil {
		s.logger.Warn("login rate limit check failed", zap.Error(err))
	} else if !allowed {
		return nil, xerrors.ErrRateLimited
	}

	identity, err := s.authRepo.FindIdentityByEmail(ctx, req.Email)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.ErrUnauthorized
		}
		return nil, err
	}

	if identity.LockedUntil.Valid && identity.LockedUntil.Time.After(time.Now()) {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "account temporarily locked")
	}

	provider, err := s.authRepo.FindProviderByIdentityAndType(ctx, identity.ID, "local")
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			// Google-only account trying password login.
			return nil, xerrors.ErrUnauthorized
		}
		return nil, err
	}

	if !provider.PasswordHash.Valid || !CheckPassword(provider.PasswordHash.String, req.Password) {
		if err := s.authRepo.IncrementFailedLoginAttempts(ctx, identity.ID, 15*time.Minute); err != nil {
			s.logger.Warn("failed to record login failure", zap.Error(err))
		}
		return nil, xerrors.ErrUnauthorized
	}

	if !identity.EmailVerified {
		return &auth.AuthResponse{
			EmailVerified: false,
			RedirectTo:    verifyEmailRedirect(identity.Email.String),
			User: auth.UserInfo{
				IdentityID: identity.ID,
				Email:      identity.Email.String,
			},
		}, nil
	}

	if err := s.limiter.ResetLoginAttempts(ctx, req.IPAddress, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	return s.establishSession(ctx, identity, "local", req.ClientID, req.IPAddress, req.UserAgent)
}

// establishSession mints tokens, persists the session in Postgres and
// Redis, and resolves the post-login destination.
func (s *AuthService) establishSession(ctx context.Context, identity *auth.Identity, providerType, clientID, ip, ua string) (*auth.AuthResponse, error) {
	accessToken, jti, err := s.jwtMgr.Generator.GenerateAccessToken(identity.ID, providerType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, _, err := s.jwtMgr.Generator.GenerateRefreshToken(identity.ID, providerType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.jwtMgr.Generator.Ttl)
	dbSession := &auth.Session{
		IdentityID:   identity.ID,
		SessionToken: jti,
		RefreshToken: sql.NullString{String: refreshToken, Valid: true},
		Provider:     providerType,
		IPAddress:    nullString(ip),
		UserAgent:    nullString(ua),
		ExpiresAt:    expiresAt,
	}
	if err := s.authRepo.CreateSession(ctx, dbSession); err != nil {
		return nil, err
	}

	sessionData := &session.SessionData{
		JTI:            jti,
		IdentityID:     identity.ID,
		SessionID:      dbSession.ID,
		Email:          identity.Email.String,
		EmailVerified:  identity.EmailVerified,
		Provider:       providerType,
		IPAddress:      ip,
		UserAgent:      ua,
		LoginAt:        dbSession.LoginAt,
		LastActivityAt: dbSession.LastActivityAt,
		ExpiresAt:      expiresAt,
		IsActive:       true,
	}
	if err := s.sessionMgr.CreateSession(ctx, sessionData); err != nil {
		return nil, err
	}

	if err := s.authRepo.UpdateIdentityLastLogin(ctx, identity.ID); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	resp := &auth.AuthResponse{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		TokenType:     "Bearer",
		ExpiresAt:     expiresAt,
		EmailVerified: identity.EmailVerified,
		User: auth.UserInfo{
			IdentityID: identity.ID,
			Email:      identity.Email.String,
		},
	}

	profile, err := s.profileRepo.FindByIdentity(ctx, identity.ID)
	switch {
	case err == nil:
		resp.User.FirstName = profile.FirstName
		resp.User.LastName = profile.LastName
	case xerrors.Is(err, xerrors.ErrNotFound):
		resp.NeedsProfile = true
	default:
		// Can't prove the profile exists, so route through completion;
		// the form redirects home if a row turns up.
		s.logger.Warn("profile check failed during login",
			zap.Int64("identity_id", identity.ID), zap.Error(err))
		resp.NeedsProfile = true
	}

	resp.RedirectTo = s.resolveDestination(ctx, clientID, resp.NeedsProfile)
	return resp, nil
}

// resolveDestination picks the post-login route. Profile completion takes
// precedence over the stored hint; the hint is consumed either way so it
// cannot replay on a later login.
func (s *AuthService) resolveDestination(ctx context.Context, clientID string, needsProfile bool) string {
	hint, err := s.hints.Consume(ctx, clientID)
	if err != nil {
		s.logger.Warn("failed to consume redirect hint", zap.Error(err))
		hint = ""
	}

	if needsProfile {
		return routeCompleteProfile
	}
	if hint != "" {
		return hint
	}
	return routeHome
}

// VerifyEmail consumes a verification link token and activates the account.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtMgr.Verifier.VerifyEmailVerificationToken(token)
	if err != nil {
		return xerrors.Wrap(xerrors.ErrUnauthorized, "invalid verification link")
	}

	stored, err := s.authRepo.FindVerificationToken(ctx, "email_verify", claims.ID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return xerrors.Wrap(xerrors.ErrUnauthorized, "verification link expired or already used")
		}
		return err
	}
	if stored.IdentityID != claims.IdentityID {
		return xerrors.ErrUnauthorized
	}

	if err := s.authRepo.MarkTokenAsUsed(ctx, stored.ID); err != nil {
		return err
	}
	return s.authRepo.MarkEmailVerified(ctx, claims.IdentityID)
}

// VerificationStatus reports whether an identity's email is confirmed.
// The waiting page polls this.
func (s *AuthService) VerificationStatus(ctx context.Context, identityID int64) (bool, error) {
	identity, err := s.authRepo.FindIdentityByID(ctx, identityID)
	if err != nil {
		return false, err
	}
	return identity.EmailVerified, nil
}

// ResendVerification issues a fresh verification email, rate limited per
// address.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	allowed, err := s.limiter.CheckResendAttempt(ctx, emailAddr)
	if err != nil {
		return err
	}
	if !allowed {
		return xerrors.ErrRateLimited
	}

	identity, err := s.authRepo.FindIdentityByEmail(ctx, emailAddr)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			// Don't leak whether the address is registered.
			return nil
		}
		return err
	}
	if identity.EmailVerified {
		return nil
	}

	return s.sendVerificationEmail(ctx, identity.ID, identity.Email.String)
}

// Logout ends the current session and notifies the user's open tabs so
// mounted gates can react without waiting for the next request.
func (s *AuthService) Logout(ctx context.Context, identityID int64, jti string, tokenExpiry time.Time) error {
	if ttl := time.Until(tokenExpiry); ttl > 0 {
		if err := s.sessionMgr.BlacklistToken(ctx, jti, ttl); err != nil {
			s.logger.Warn("failed to blacklist token", zap.Error(err))
		}
	}

	if err := s.sessionMgr.InvalidateSession(ctx, identityID, jti); err != nil {
		return err
	}

	s.hub.SessionEnded(identityID, jti, "logout")
	return nil
}

// LogoutAll revokes every session the identity holds.
func (s *AuthService) LogoutAll(ctx context.Context, identityID int64) error {
	if err := s.sessionMgr.InvalidateAllUserSessions(ctx, identityID); err != nil {
		return err
	}
	s.hub.SessionEnded(identityID, "", "logout_all")
	return nil
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, identityID int64, to string) error {
	token, jti, err := s.jwtMgr.Generator.GenerateEmailVerificationToken(identityID)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	stored := &auth.VerificationToken{
		IdentityID: identityID,
		TokenType:  "email_verify",
		Token:      jti,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}
	if err := s.authRepo.CreateVerificationToken(ctx, stored); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.baseURL, token)
	body := verificationEmailHTML(link)

	go func() {
		if err := s.emailSender.Send(to, "Verify your email address", body); err != nil {
			s.logger.Error("verification email delivery failed",
				zap.String("to", to), zap.Error(err))
		}
	}()
	return nil
}

func verificationEmailHTML(link string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 560px; margin: 0 auto;">
			<h2>Confirm your email</h2>
			<p>Thanks for signing up. Click the button below to verify your email address and activate your account.</p>
			<p style="margin: 24px 0;">
				<a href="%s" style="background: #4f46e5; color: #fff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Verify Email</a>
			</p>
			<p>This link expires in 24 hours. If you did not create an account, you can ignore this email.</p>
		</div>`, link)
}

// verifyEmailRedirect builds the waiting-page route. The address rides
// along as a query value so the page can show it and drive the resend
// form without another lookup.
func verifyEmailRedirect(email string) string {
	return routeVerifyEmail + "?email=" + url.QueryEscape(email)
}

func parseSignupGender(s string) (string, error) {
	switch strings.ToLower(s) {
	case "male", "female", "other":
		return strings.ToLower(s), nil
	default:
		return "", fmt.Errorf("invalid gender %q", s)
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
