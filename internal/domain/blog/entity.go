// internal/domain/blog/entity.go
package blog

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Post is a row in the blogs table.
type Post struct {
	ID          int64          `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	Slug        string         `json:"slug" db:"slug"`
	Excerpt     sql.NullString `json:"excerpt" db:"excerpt"`
	Content     string         `json:"content" db:"content"`
	CoverURL    sql.NullString `json:"cover_url" db:"cover_url"`
	Category    sql.NullString `json:"category" db:"category"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
	Featured    bool           `json:"featured" db:"featured"`
	Active      bool           `json:"active" db:"active"`
	PublishedAt time.Time      `json:"published_at" db:"published_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}
