package post

import (
	"context"
	"fmt"

	"github.com/devopsblog/blog/pkg/logger"
)

// Repository is the storage contract for posts.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Post, int, error)
	Get(ctx context.Context, id int64) (*Post, error)
	Create(ctx context.Context, in *NewPost) (*Post, error)
	Update(ctx context.Context, id int64, patch *Patch) (*Post, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// Service implements post operations on top of a Repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns posts newest first.
func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	posts, total, err := s.repo.List(ctx, params.Limit, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	if posts == nil {
		posts = []Post{}
	}
	return &Page{Posts: posts, Pagination: NewPagination(params, total)}, nil
}

// Get returns the post with id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Post, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}
	return p, nil
}

// Create validates and stores a new post.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Post, error) {
	row, err := in.Validate()
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	logger.FromContext(ctx).Info("Post created", "post_id", p.ID)
	return p, nil
}

// Update applies the provided fields and refreshes updated_at.
func (s *Service) Update(ctx context.Context, id int64, in *UpdateInput) (*Post, error) {
	patch, err := in.Validate()
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating post %d: %w", id, err)
	}
	logger.FromContext(ctx).Info("Post updated", "post_id", id, "touch_only", patch.Empty())
	return p, nil
}

// Delete removes the post permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}
	logger.FromContext(ctx).Info("Post deleted", "post_id", id)
	return nil
}
