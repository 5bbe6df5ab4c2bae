// internal/domain/catalog/entity.go
package catalog

import (
	"database/sql"
	"time"
)

// Service is an invitation category on the services page (wedding,
// birthday, anniversary, ...). Slug doubles as the card-table category.
type Service struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description sql.NullString `json:"description" db:"description"`
	Active      bool           `json:"active" db:"active"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Card is a single invitation design inside a per-category card table
// (wedding_cards, birthday_cards, ...).
type Card struct {
	ID        int64          `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Slug      string         `json:"slug" db:"slug"`
	ImageURL  sql.NullString `json:"image_url" db:"image_url"`
	Price     sql.NullInt64  `json:"price" db:"price"`
	Featured  bool           `json:"featured" db:"featured"`
	Active    bool           `json:"active" db:"active"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
