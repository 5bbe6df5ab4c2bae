// internal/repository/postgres/profile_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"invitera-service/internal/domain/user"
	xerrors "invitera-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByIdentity retrieves the profile row for an identity. Absence is a
// branch condition for the gating flow, so it surfaces as ErrNotFound.
func (r *ProfileRepository) FindByIdentity(ctx context.Context, identityID int64) (*user.Profile, error) {
	query := `
		SELECT id, identity_id, first_name, last_name, email, mobile, gender, role,
		       created_at, updated_at
		FROM users
		WHERE identity_id = $1
	`

	var p user.Profile
	var gender, role string
	err := r.db.QueryRow(ctx, query, identityID).Scan(
		&p.ID, &p.IdentityID, &p.FirstName, &p.LastName, &p.Email,
		&p.Mobile, &gender, &role, &p.CreatedAt, &p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	if p.Gender, err = user.ParseGender(gender); err != nil {
		return nil, fmt.Errorf("corrupt profile row %d: %w", p.ID, err)
	}
	if p.Role, err = user.ParseRole(role); err != nil {
		return nil, fmt.Errorf("corrupt profile row %d: %w", p.ID, err)
	}

	return &p, nil
}

// Upsert writes the profile row for an identity in a single statement.
// The unique constraint on identity_id makes the completion flow
// idempotent: a row created concurrently by the signup trigger is
// updated in place, never duplicated.
func (r *ProfileRepository) Upsert(ctx context.Context, p *user.Profile) error {
	query := `
		INSERT INTO users (identity_id, first_name, last_name, email, mobile, gender, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identity_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name  = EXCLUDED.last_name,
		    mobile     = EXCLUDED.mobile,
		    gender     = EXCLUDED.gender,
		    updated_at = NOW()
		RETURNING id, role, created_at, updated_at
	`

	var role string
	err := r.db.QueryRow(ctx, query,
		p.IdentityID, p.FirstName, p.LastName, p.Email, p.Mobile,
		string(p.Gender), string(p.Role),
	).Scan(&p.ID, &role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	// Role is never changed by the completion flow; report what the row holds.
	if p.Role, err = user.ParseRole(role); err != nil {
		return fmt.Errorf("corrupt profile row %d: %w", p.ID, err)
	}
	return nil
}

// Update modifies the caller's own editable fields
func (r *ProfileRepository) Update(ctx context.Context, identityID int64, p *user.Profile) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, mobile = $4, gender = $5, updated_at = NOW()
		WHERE identity_id = $1
		RETURNING id, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		identityID, p.FirstName, p.LastName, p.Mobile, string(p.Gender),
	).Scan(&p.ID, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
