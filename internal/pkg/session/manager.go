// internal/pkg/session/manager.go
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	xerrors "invitera-service/internal/pkg/errors"
	"invitera-service/internal/repository/postgres"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Manager struct {
	client   *redis.Client
	authRepo *postgres.AuthRepository
	logger   *zap.Logger
}

func NewManager(client *redis.Client, authRepo *postgres.AuthRepository, logger *zap.Logger) *Manager {
	return &Manager{
		client:   client,
		authRepo: authRepo,
		logger:   logger,
	}
}

// CreateSession stores a new session in Redis and refreshes DB activity
func (m *Manager) CreateSession(ctx context.Context, session *SessionData) error {
	key := m.sessionKey(session.IdentityID, session.JTI)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := m.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}

	if session.SessionID > 0 {
		if err := m.authRepo.UpdateSessionActivity(ctx, session.SessionID); err != nil {
			// Redis is source of truth, log only
			m.logger.Warn("failed to update DB session activity", zap.Error(err))
		}
	}

	return nil
}

// GetSession retrieves a session from Redis with DB fallback
func (m *Manager) GetSession(ctx context.Context, identityID int64, jti string) (*SessionData, error) {
	key := m.sessionKey(identityID, jti)

	// Redis fast path
	data, err := m.client.Get(ctx, key).Bytes()
	if err == nil {
		var session SessionData
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}

		session.LastActivityAt = time.Now()
		go m.touch(context.Background(), identityID, jti)

		return &session, nil
	}

	if err != redis.Nil {
		m.logger.Warn("redis error, falling back to DB", zap.Error(err))
	}

	dbSession, dbErr := m.authRepo.FindSessionByToken(ctx, jti)
	if dbErr != nil {
		if xerrors.Is(dbErr, xerrors.ErrNotFound) {
			return nil, xerrors.ErrNoSession
		}
		return nil, fmt.Errorf("session lookup failed: %w", dbErr)
	}

	if dbSession.IdentityID != identityID {
		return nil, xerrors.ErrNoSession
	}
	if dbSession.Status != "active" || dbSession.ExpiresAt.Before(time.Now()) {
		return nil, xerrors.ErrSessionExpired
	}

	sessionData := &SessionData{
		JTI:            jti,
		IdentityID:     dbSession.IdentityID,
		SessionID:      dbSession.ID,
		Provider:       dbSession.Provider,
		IPAddress:      stringFromNull(dbSession.IPAddress),
		UserAgent:      stringFromNull(dbSession.UserAgent),
		LoginAt:        dbSession.LoginAt,
		LastActivityAt: dbSession.LastActivityAt,
		ExpiresAt:      dbSession.ExpiresAt,
		IsActive:       true,
	}

	identity, err := m.authRepo.FindIdentityByID(ctx, identityID)
	if err == nil {
		if identity.Email.Valid {
			sessionData.Email = identity.Email.String
		}
		sessionData.EmailVerified = identity.EmailVerified
	}

	// Restore to Redis for next time
	go func() {
		if err := m.CreateSession(context.Background(), sessionData); err != nil {
			m.logger.Warn("failed to restore session to redis", zap.Error(err))
		}
	}()

	return sessionData, nil
}

// touch updates the last-activity timestamp of a cached session.
func (m *Manager) touch(ctx context.Context, identityID int64, jti string) {
	key := m.sessionKey(identityID, jti)

	data, err := m.client.Get(ctx, key).Bytes()
	if err != nil {
		return // session gone or expired
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return
	}

	session.LastActivityAt = time.Now()

	updated, err := json.Marshal(session)
	if err != nil {
		return
	}

	if ttl := time.Until(session.ExpiresAt); ttl > 0 {
		_ = m.client.Set(ctx, key, updated, ttl).Err()
	}
}

// InvalidateSession removes a session from Redis and DB
func (m *Manager) InvalidateSession(ctx context.Context, identityID int64, jti string) error {
	key := m.sessionKey(identityID, jti)

	if err := m.client.Del(ctx, key).Err(); err != nil {
		m.logger.Warn("failed to delete session from redis", zap.Error(err))
	}

	dbSession, err := m.authRepo.FindSessionByToken(ctx, jti)
	if err == nil {
		if err := m.authRepo.InvalidateSession(ctx, dbSession.ID); err != nil {
			return fmt.Errorf("failed to invalidate DB session: %w", err)
		}
	}

	return nil
}

// InvalidateAllUserSessions removes all sessions for a user
func (m *Manager) InvalidateAllUserSessions(ctx context.Context, identityID int64) error {
	pattern := fmt.Sprintf("session:%d:*", identityID)

	iter := m.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := m.client.Del(ctx, iter.Val()).Err(); err != nil {
			m.logger.Warn("failed to delete session", zap.String("key", iter.Val()), zap.Error(err))
		}
	}

	if err := m.authRepo.InvalidateAllUserSessions(ctx, identityID); err != nil {
		return fmt.Errorf("failed to invalidate DB sessions: %w", err)
	}

	return iter.Err()
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := m.blacklistKey(jti)
	exists, err := m.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	key := m.blacklistKey(jti)
	return m.client.Set(ctx, key, "1", ttl).Err()
}

func (m *Manager) sessionKey(identityID int64, jti string) string {
	return fmt.Sprintf("session:%d:%s", identityID, jti)
}

func (m *Manager) blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}

func stringFromNull(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}
