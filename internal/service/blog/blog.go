// internal/service/blog/blog.go
package blog

import (
	"context"

	"invitera-service/internal/domain/blog"
	"invitera-service/internal/repository/postgres"
)

const relatedLimit = 3

type BlogService struct {
	repo *postgres.BlogRepository
}

func NewBlogService(repo *postgres.BlogRepository) *BlogService {
	return &BlogService{repo: repo}
}

// List returns published posts, optionally filtered by category.
func (s *BlogService) List(ctx context.Context, category string) ([]*blog.Post, error) {
	return s.repo.ListActive(ctx, category)
}

// Get returns a single post with its related posts.
func (s *BlogService) Get(ctx context.Context, slug string) (*blog.Post, []*blog.Post, error) {
	post, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	var related []*blog.Post
	if post.Category.Valid {
		related, err = s.repo.ListRelated(ctx, post.Category.String, post.ID, relatedLimit)
		if err != nil {
			// Related posts are decoration; the post itself still renders.
			related = nil
		}
	}

	return post, related, nil
}
