// internal/repository/postgres/auth_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invitera-service/internal/domain/auth"
	xerrors "invitera-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthRepository struct {
	db *pgxpool.Pool
}

func NewAuthRepository(db *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{db: db}
}

// ========== Identity Methods ==========

// FindIdentityByEmail retrieves an identity by email
func (r *AuthRepository) FindIdentityByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	query := `
		SELECT id, email, email_verified, email_verified_at,
		       status, last_login, failed_login_attempts, locked_until,
		       created_at, updated_at, deleted_at
		FROM auth_identities
		WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL
	`

	var identity auth.Identity
	err := r.db.QueryRow(ctx, query, email).Scan(
		&identity.ID, &identity.Email, &identity.EmailVerified, &identity.EmailVerifiedAt,
		&identity.Status, &identity.LastLogin, &identity.FailedLoginAttempts, &identity.LockedUntil,
		&identity.CreatedAt, &identity.UpdatedAt, &identity.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	return &identity, nil
}

// FindIdentityByID retrieves an identity by ID
func (r *AuthRepository) FindIdentityByID(ctx context.Context, id int64) (*auth.Identity, error) {
	query := `
		SELECT id, email, email_verified, email_verified_at,
		       status, last_login, failed_login_attempts, locked_until,
		       created_at, updated_at, deleted_at
		FROM auth_identities
		WHERE id = $1 AND deleted_at IS NULL
	`

	var identity auth.Identity
	err := r.db.QueryRow(ctx, query, id).Scan(
		&identity.ID, &identity.Email, &identity.EmailVerified, &identity.EmailVerifiedAt,
		&identity.Status, &identity.LastLogin, &identity.FailedLoginAttempts, &identity.LockedUntil,
		&identity.CreatedAt, &identity.UpdatedAt, &identity.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	return &identity, nil
}

// ExistsByEmail checks whether an identity with this email exists
func (r *AuthRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM auth_identities
			WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// CreateIdentity creates a new identity
func (r *AuthRepository) CreateIdentity(ctx context.Context, identity *auth.Identity) error {
	query := `
		INSERT INTO auth_identities (email, status)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, identity.Email, identity.Status).Scan(
		&identity.ID, &identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

// MarkEmailVerified sets the confirmation timestamp and activates the account
func (r *AuthRepository) MarkEmailVerified(ctx context.Context, identityID int64) error {
	query := `
		UPDATE auth_identities
		SET email_verified = TRUE,
		    email_verified_at = NOW(),
		    status = 'active',
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, identityID)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdateIdentityLastLogin resets failed attempts and records the login time
func (r *AuthRepository) UpdateIdentityLastLogin(ctx context.Context, identityID int64) error {
	query := `
		UPDATE auth_identities
		SET last_login = NOW(),
		    failed_login_attempts = 0,
		    locked_until = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, identityID); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// IncrementFailedLoginAttempts bumps the counter and locks the account
// after five consecutive failures.
func (r *AuthRepository) IncrementFailedLoginAttempts(ctx context.Context, identityID int64, lockFor time.Duration) error {
	query := `
		UPDATE auth_identities
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= 5 THEN NOW() + $2::interval
		        ELSE locked_until
		    END,
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, identityID, lockFor.String()); err != nil {
		return fmt.Errorf("failed to increment login attempts: %w", err)
	}
	return nil
}

// ========== Provider Methods ==========

// CreateProvider creates an auth provider record
func (r *AuthRepository) CreateProvider(ctx context.Context, provider *auth.Provider) error {
	metadata, err := json.Marshal(provider.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal provider metadata: %w", err)
	}

	query := `
		INSERT INTO auth_providers (identity_id, provider, provider_user_id, provider_email, password_hash, metadata, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		provider.IdentityID, provider.Provider, provider.ProviderUserID,
		provider.ProviderEmail, provider.PasswordHash, metadata, provider.IsPrimary,
	).Scan(&provider.ID, &provider.CreatedAt, &provider.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

// FindProviderByIdentityAndType retrieves a provider record
func (r *AuthRepository) FindProviderByIdentityAndType(ctx context.Context, identityID int64, providerType string) (*auth.Provider, error) {
	query := `
		SELECT id, identity_id, provider, provider_user_id, provider_email,
		       password_hash, metadata, is_primary, created_at, updated_at
		FROM auth_providers
		WHERE identity_id = $1 AND provider = $2
	`

	var provider auth.Provider
	var metadata []byte
	err := r.db.QueryRow(ctx, query, identityID, providerType).Scan(
		&provider.ID, &provider.IdentityID, &provider.Provider,
		&provider.ProviderUserID, &provider.ProviderEmail,
		&provider.PasswordHash, &metadata, &provider.IsPrimary,
		&provider.CreatedAt, &provider.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &provider.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal provider metadata: %w", err)
		}
	}

	return &provider, nil
}

// UpdateProviderMetadata replaces the provider-side user metadata
func (r *AuthRepository) UpdateProviderMetadata(ctx context.Context, providerID int64, meta map[string]interface{}) error {
	metadata, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal provider metadata: %w", err)
	}

	query := `
		UPDATE auth_providers
		SET metadata = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, providerID, metadata); err != nil {
		return fmt.Errorf("failed to update provider metadata: %w", err)
	}
	return nil
}

// ========== Session Methods ==========

// CreateSession persists a session row
func (r *AuthRepository) CreateSession(ctx context.Context, session *auth.Session) error {
	query := `
		INSERT INTO auth_sessions (identity_id, session_token, refresh_token, provider, ip_address, user_agent, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)
		RETURNING id, login_at, last_activity_at
	`

	err := r.db.QueryRow(ctx, query,
		session.IdentityID, session.SessionToken, session.RefreshToken,
		session.Provider, session.IPAddress, session.UserAgent, session.ExpiresAt,
	).Scan(&session.ID, &session.LoginAt, &session.LastActivityAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindSessionByToken looks up a session row by its token (the JTI)
func (r *AuthRepository) FindSessionByToken(ctx context.Context, token string) (*auth.Session, error) {
	query := `
		SELECT id, identity_id, session_token, refresh_token, provider,
		       ip_address, user_agent, status, login_at, last_activity_at,
		       expires_at, logout_at
		FROM auth_sessions
		WHERE session_token = $1
	`

	var session auth.Session
	err := r.db.QueryRow(ctx, query, token).Scan(
		&session.ID, &session.IdentityID, &session.SessionToken,
		&session.RefreshToken, &session.Provider,
		&session.IPAddress, &session.UserAgent, &session.Status,
		&session.LoginAt, &session.LastActivityAt,
		&session.ExpiresAt, &session.LogoutAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &session, nil
}

// UpdateSessionActivity bumps last_activity_at
func (r *AuthRepository) UpdateSessionActivity(ctx context.Context, sessionID int64) error {
	query := `UPDATE auth_sessions SET last_activity_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to update session activity: %w", err)
	}
	return nil
}

// InvalidateSession revokes a single session
func (r *AuthRepository) InvalidateSession(ctx context.Context, sessionID int64) error {
	query := `
		UPDATE auth_sessions
		SET status = 'revoked', logout_at = NOW()
		WHERE id = $1 AND status = 'active'
	`
	if _, err := r.db.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	return nil
}

// InvalidateAllUserSessions revokes every active session for an identity
func (r *AuthRepository) InvalidateAllUserSessions(ctx context.Context, identityID int64) error {
	query := `
		UPDATE auth_sessions
		SET status = 'revoked', logout_at = NOW()
		WHERE identity_id = $1 AND status = 'active'
	`
	if _, err := r.db.Exec(ctx, query, identityID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}
	return nil
}

// ========== Verification Token Methods ==========

// CreateVerificationToken stores a verification token
func (r *AuthRepository) CreateVerificationToken(ctx context.Context, token *auth.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (identity_id, token_type, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		token.IdentityID, token.TokenType, token.Token, token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

// FindVerificationToken retrieves an unused, unexpired token
func (r *AuthRepository) FindVerificationToken(ctx context.Context, tokenType, token string) (*auth.VerificationToken, error) {
	query := `
		SELECT id, identity_id, token_type, token, expires_at, used_at, created_at
		FROM verification_tokens
		WHERE token_type = $1 AND token = $2
		  AND used_at IS NULL AND expires_at > NOW()
	`

	var vToken auth.VerificationToken
	err := r.db.QueryRow(ctx, query, tokenType, token).Scan(
		&vToken.ID, &vToken.IdentityID, &vToken.TokenType, &vToken.Token,
		&vToken.ExpiresAt, &vToken.UsedAt, &vToken.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find verification token: %w", err)
	}

	return &vToken, nil
}

// MarkTokenAsUsed consumes a verification token
func (r *AuthRepository) MarkTokenAsUsed(ctx context.Context, tokenID int64) error {
	query := `UPDATE verification_tokens SET used_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, tokenID); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}
	return nil
}
