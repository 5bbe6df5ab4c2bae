// internal/repository/postgres/blog_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"invitera-service/internal/domain/blog"
	xerrors "invitera-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type BlogRepository struct {
	db *pgxpool.Pool
}

func NewBlogRepository(db *pgxpool.Pool) *BlogRepository {
	return &BlogRepository{db: db}
}

const blogColumns = `id, title, slug, excerpt, content, cover_url, category, tags,
	featured, active, published_at, created_at, updated_at`

func scanPost(row pgx.Row) (*blog.Post, error) {
	var p blog.Post
	var tags []string
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.CoverURL,
		&p.Category, &tags, &p.Featured, &p.Active,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Tags = pq.StringArray(tags)
	return &p, nil
}

// ListActive returns published posts, newest first, optionally filtered
// by category.
func (r *BlogRepository) ListActive(ctx context.Context, category string) ([]*blog.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM blogs
		WHERE active = TRUE AND ($1 = '' OR category = $1)
		ORDER BY published_at DESC
	`, blogColumns)

	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	var posts []*blog.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// FindBySlug retrieves a single active post
func (r *BlogRepository) FindBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM blogs
		WHERE slug = $1 AND active = TRUE
	`, blogColumns)

	p, err := scanPost(r.db.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blog: %w", err)
	}

	return p, nil
}

// ListRelated returns other active posts in the same category
func (r *BlogRepository) ListRelated(ctx context.Context, category string, excludeID int64, limit int) ([]*blog.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM blogs
		WHERE active = TRUE AND category = $1 AND id <> $2
		ORDER BY published_at DESC
		LIMIT $3
	`, blogColumns)

	rows, err := r.db.Query(ctx, query, category, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list related blogs: %w", err)
	}
	defer rows.Close()

	var posts []*blog.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}
