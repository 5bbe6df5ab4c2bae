// internal/domain/auth/entity.go
package auth

import (
	"database/sql"
	"time"
)

// Identity represents the core user identity
type Identity struct {
	ID                  int64          `json:"id" db:"id"`
	Email               sql.NullString `json:"email" db:"email"`
	EmailVerified       bool           `json:"email_verified" db:"email_verified"`
	EmailVerifiedAt     sql.NullTime   `json:"email_verified_at" db:"email_verified_at"`
	Status              string         `json:"status" db:"status"` // active, inactive, pending_verification
	LastLogin           sql.NullTime   `json:"last_login" db:"last_login"`
	FailedLoginAttempts int            `json:"-" db:"failed_login_attempts"`
	LockedUntil         sql.NullTime   `json:"-" db:"locked_until"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt           sql.NullTime   `json:"-" db:"deleted_at"`
}

// Provider represents an authentication provider (local, google)
type Provider struct {
	ID             int64                  `json:"id" db:"id"`
	IdentityID     int64                  `json:"identity_id" db:"identity_id"`
	Provider       string                 `json:"provider" db:"provider"` // local, google
	ProviderUserID sql.NullString         `json:"provider_user_id" db:"provider_user_id"`
	ProviderEmail  sql.NullString         `json:"provider_email" db:"provider_email"`
	PasswordHash   sql.NullString         `json:"-" db:"password_hash"` // Only for local provider
	Metadata       map[string]interface{} `json:"metadata" db:"metadata"`
	IsPrimary      bool                   `json:"is_primary" db:"is_primary"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at" db:"updated_at"`
}

// Session represents a user session row
type Session struct {
	ID             int64          `json:"id" db:"id"`
	IdentityID     int64          `json:"identity_id" db:"identity_id"`
	SessionToken   string         `json:"-" db:"session_token"`
	RefreshToken   sql.NullString `json:"-" db:"refresh_token"`
	Provider       string         `json:"provider" db:"provider"`
	IPAddress      sql.NullString `json:"ip_address" db:"ip_address"`
	UserAgent      sql.NullString `json:"user_agent" db:"user_agent"`
	Status         string         `json:"status" db:"status"` // active, expired, revoked
	LoginAt        time.Time      `json:"login_at" db:"login_at"`
	LastActivityAt time.Time      `json:"last_activity_at" db:"last_activity_at"`
	ExpiresAt      time.Time      `json:"expires_at" db:"expires_at"`
	LogoutAt       sql.NullTime   `json:"logout_at" db:"logout_at"`
}

// VerificationToken represents an email verification token
type VerificationToken struct {
	ID         int64        `json:"id" db:"id"`
	IdentityID int64        `json:"identity_id" db:"identity_id"`
	TokenType  string       `json:"token_type" db:"token_type"` // email_verify
	Token      string       `json:"token" db:"token"`
	ExpiresAt  time.Time    `json:"expires_at" db:"expires_at"`
	UsedAt     sql.NullTime `json:"used_at" db:"used_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}
