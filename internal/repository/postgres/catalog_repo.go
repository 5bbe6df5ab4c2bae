// internal/repository/postgres/catalog_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"invitera-service/internal/domain/catalog"
	xerrors "invitera-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// cardTables whitelists the per-category card tables. Table names can
// never be parameterized, so anything outside this map is rejected
// before a query is built.
var cardTables = map[string]string{
	"wedding":     "wedding_cards",
	"birthday":    "birthday_cards",
	"anniversary": "anniversary_cards",
	"baby":        "baby_cards",
	"corporate":   "corporate_cards",
}

type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListServices returns active services ordered by id
func (r *CatalogRepository) ListServices(ctx context.Context) ([]*catalog.Service, error) {
	query := `
		SELECT id, name, slug, description, active, created_at, updated_at
		FROM services
		WHERE active = TRUE
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*catalog.Service
	for rows.Next() {
		var s catalog.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, &s)
	}

	return services, rows.Err()
}

// FindServiceBySlug retrieves a single active service
func (r *CatalogRepository) FindServiceBySlug(ctx context.Context, slug string) (*catalog.Service, error) {
	query := `
		SELECT id, name, slug, description, active, created_at, updated_at
		FROM services
		WHERE slug = $1 AND active = TRUE
	`

	var s catalog.Service
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&s.ID, &s.Name, &s.Slug, &s.Description, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service: %w", err)
	}

	return &s, nil
}

// ListCards returns the active cards of one category table
func (r *CatalogRepository) ListCards(ctx context.Context, category string) ([]*catalog.Card, error) {
	table, ok := cardTables[category]
	if !ok {
		return nil, xerrors.ErrNotFound
	}

	query := fmt.Sprintf(`
		SELECT id, name, slug, image_url, price, featured, active, created_at
		FROM %s
		WHERE active = TRUE
		ORDER BY featured DESC, id ASC
	`, table)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var cards []*catalog.Card
	for rows.Next() {
		var c catalog.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ImageURL, &c.Price, &c.Featured, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, &c)
	}

	return cards, rows.Err()
}
