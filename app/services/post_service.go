package services

import (
	"context"
	"fmt"

	"blogquery/app/models"
	"blogquery/app/repositories"
)

// PostService serves the read side of the materialized view
type PostService struct {
	store repositories.PostStore
}

// NewPostService creates a new PostService
func NewPostService(store repositories.PostStore) *PostService {
	return &PostService{store: store}
}

// ListPosts returns every post with its comments
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost retrieves a post by ID with its comments
func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.store.Get(ctx, id)
}

// Healthy reports whether the store is reachable
func (s *PostService) Healthy(ctx context.Context) error {
	return s.store.Ping(ctx)
}
