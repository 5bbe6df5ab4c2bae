// internal/service/catalog/catalog.go
package catalog

import (
	"context"

	"invitera-service/internal/domain/catalog"
	xerrors "invitera-service/internal/pkg/errors"
	"invitera-service/internal/repository/postgres"
)

type CatalogService struct {
	repo *postgres.CatalogRepository
}

func NewCatalogService(repo *postgres.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListServices returns the active invitation categories.
func (s *CatalogService) ListServices(ctx context.Context) ([]*catalog.Service, error) {
	return s.repo.ListServices(ctx)
}

// ServiceWithCards returns one category page: the service record plus
// its card designs.
func (s *CatalogService) ServiceWithCards(ctx context.Context, slug string) (*catalog.Service, []*catalog.Card, error) {
	service, err := s.repo.FindServiceBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	cards, err := s.repo.ListCards(ctx, service.Slug)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			// Service exists but has no card table of its own yet.
			return service, nil, nil
		}
		return nil, nil, err
	}

	return service, cards, nil
}
