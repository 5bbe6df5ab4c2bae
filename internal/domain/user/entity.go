// internal/domain/user/entity.go
package user

import (
	"database/sql"
	"fmt"
	"time"
)

// Gender is the profile gender field. The column is a plain text enum, so
// every read site goes through Parse to keep unknown values out.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender validates a raw gender string.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderMale, GenderFemale, GenderOther:
		return Gender(s), nil
	default:
		return "", fmt.Errorf("invalid gender %q", s)
	}
}

// Role is the application-level role stored on the profile row, distinct
// from the session's auth roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// Profile is the application user record in the users table. At most one
// row exists per identity (unique constraint on identity_id).
type Profile struct {
	ID         int64          `json:"id" db:"id"`
	IdentityID int64          `json:"identity_id" db:"identity_id"`
	FirstName  string         `json:"first_name" db:"first_name"`
	LastName   string         `json:"last_name" db:"last_name"`
	Email      string         `json:"email" db:"email"`
	Mobile     sql.NullString `json:"mobile" db:"mobile"`
	Gender     Gender         `json:"gender" db:"gender"`
	Role       Role           `json:"role" db:"role"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the profile row carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
