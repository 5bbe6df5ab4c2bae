// internal/service/profile/profile.go
package profile

import (
	"context"
	"database/sql"
	"strings"

	"invitera-service/internal/domain/auth"
	"invitera-service/internal/domain/user"
	xerrors "invitera-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// ProfileStore is the profile-row persistence the service needs.
type ProfileStore interface {
	FindByIdentity(ctx context.Context, identityID int64) (*user.Profile, error)
	Upsert(ctx context.Context, p *user.Profile) error
	Update(ctx context.Context, identityID int64, p *user.Profile) error
}

// IdentityStore is the slice of the auth repository the service reads
// identities and provider metadata through.
type IdentityStore interface {
	FindIdentityByID(ctx context.Context, id int64) (*auth.Identity, error)
	FindProviderByIdentityAndType(ctx context.Context, identityID int64, providerType string) (*auth.Provider, error)
	UpdateProviderMetadata(ctx context.Context, providerID int64, meta map[string]interface{}) error
}

type ProfileService struct {
	profileRepo ProfileStore
	authRepo    IdentityStore
	logger      *zap.Logger
}

func NewProfileService(profileRepo ProfileStore, authRepo IdentityStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		authRepo:    authRepo,
		logger:      logger,
	}
}

// Prefill builds the completion-form defaults from provider metadata.
// hasProfile is true when a row already exists, in which case the form
// should not be shown at all.
func (s *ProfileService) Prefill(ctx context.Context, identityID int64) (*user.Prefill, bool, error) {
	_, err := s.profileRepo.FindByIdentity(ctx, identityID)
	if err == nil {
		return nil, true, nil
	}
	if !xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, false, err
	}

	prefill := &user.Prefill{}

	identity, err := s.authRepo.FindIdentityByID(ctx, identityID)
	if err != nil {
		return nil, false, err
	}
	if identity.Email.Valid {
		prefill.Email = identity.Email.String
	}

	// Google metadata wins over local signup metadata when both exist.
	for _, providerType := range []string{"google", "local"} {
		provider, err := s.authRepo.FindProviderByIdentityAndType(ctx, identityID, providerType)
		if err != nil {
			if !xerrors.Is(err, xerrors.ErrNotFound) {
				s.logger.Warn("prefill provider lookup failed",
					zap.String("provider", providerType), zap.Error(err))
			}
			continue
		}
		applyMetadata(prefill, provider.Metadata)
		if prefill.FirstName != "" || prefill.LastName != "" {
			break
		}
	}

	return prefill, false, nil
}

// applyMetadata fills name fields from provider metadata. Explicit
// given/family names take precedence; otherwise the full name is split:
// first token becomes the first name, the remainder the last name.
func applyMetadata(p *user.Prefill, meta map[string]interface{}) {
	given := metaString(meta, "given_name")
	if given == "" {
		given = metaString(meta, "first_name")
	}
	family := metaString(meta, "family_name")
	if family == "" {
		family = metaString(meta, "last_name")
	}

	if given != "" || family != "" {
		p.FirstName = given
		p.LastName = family
		return
	}

	full := strings.TrimSpace(metaString(meta, "full_name"))
	if full == "" {
		return
	}
	parts := strings.Fields(full)
	p.FirstName = parts[0]
	if len(parts) > 1 {
		p.LastName = strings.Join(parts[1:], " ")
	}
}

// Complete writes the profile row for an identity. The write is an
// upsert keyed on identity_id, so resubmits and races with a concurrent
// completion update the same row instead of erroring or duplicating.
func (s *ProfileService) Complete(ctx context.Context, identityID int64, req *user.CompleteProfileRequest) (*user.Profile, error) {
	gender, err := user.ParseGender(strings.ToLower(req.Gender))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "gender must be male, female or other")
	}

	identity, err := s.authRepo.FindIdentityByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	p := &user.Profile{
		IdentityID: identityID,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      identity.Email.String,
		Mobile:     nullString(strings.TrimSpace(req.Mobile)),
		Gender:     gender,
		Role:       user.RoleUser,
	}
	if p.FirstName == "" || p.LastName == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "first and last name are required")
	}

	if err := s.profileRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}

	// Mirror the submitted name back onto the primary provider record so
	// the next prefill reflects what the user actually chose.
	if provider, perr := s.authRepo.FindProviderByIdentityAndType(ctx, identityID, "local"); perr == nil {
		meta := provider.Metadata
		if meta == nil {
			meta = map[string]interface{}{}
		}
		meta["first_name"] = p.FirstName
		meta["last_name"] = p.LastName
		meta["gender"] = string(p.Gender)
		if err := s.authRepo.UpdateProviderMetadata(ctx, provider.ID, meta); err != nil {
			s.logger.Warn("failed to sync provider metadata", zap.Error(err))
		}
	}

	return p, nil
}

// Me returns the caller's profile row.
func (s *ProfileService) Me(ctx context.Context, identityID int64) (*user.Profile, error) {
	return s.profileRepo.FindByIdentity(ctx, identityID)
}

// Update modifies the caller's editable profile fields.
func (s *ProfileService) Update(ctx context.Context, identityID int64, req *user.UpdateProfileRequest) (*user.Profile, error) {
	current, err := s.profileRepo.FindByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(req.FirstName); v != "" {
		current.FirstName = v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		current.LastName = v
	}
	if v := strings.TrimSpace(req.Mobile); v != "" {
		current.Mobile = nullString(v)
	}
	if req.Gender != "" {
		gender, err := user.ParseGender(strings.ToLower(req.Gender))
		if err != nil {
			return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "gender must be male, female or other")
		}
		current.Gender = gender
	}

	if err := s.profileRepo.Update(ctx, identityID, current); err != nil {
		return nil, err
	}
	return current, nil
}

func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
