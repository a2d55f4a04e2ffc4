package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/devopsblog/blog/engine/post"
	"github.com/georgysavva/scany/v2/pgxscan"
	"golang.org/x/sync/errgroup"
)

const postColumns = "id, title, content, excerpt, tags, created_at, updated_at"

// PostRepo implements post.Repository on top of a Store.
type PostRepo struct {
	store *Store
}

func NewPostRepo(store *Store) *PostRepo {
	return &PostRepo{store: store}
}

var _ post.Repository = (*PostRepo)(nil)

// List returns one page of posts newest first together with the total row
// count. Both queries run concurrently on separate pool connections.
func (r *PostRepo) List(ctx context.Context, limit, offset int) ([]post.Post, int, error) {
	query, args, err := squirrel.Select(postColumns).
		From("posts").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building list query: %w", err)
	}
	var (
		posts []post.Post
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pgxscan.Select(gctx, r.store.db, &posts, query, args...)
	})
	g.Go(func() error {
		return r.store.db.QueryRow(gctx, countPostsSQL).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, r.store.fail(ctx, "list posts", err)
	}
	return posts, total, nil
}

// Get returns a post by id.
func (r *PostRepo) Get(ctx context.Context, id int64) (*post.Post, error) {
	query, args, err := squirrel.Select(postColumns).
		From("posts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get query: %w", err)
	}
	var p post.Post
	if err := pgxscan.Get(ctx, r.store.db, &p, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, post.ErrNotFound
		}
		return nil, r.store.fail(ctx, "get post", err)
	}
	return &p, nil
}

// Create inserts a post. created_at and updated_at share one NOW() value.
func (r *PostRepo) Create(ctx context.Context, in *post.NewPost) (*post.Post, error) {
	query, args, err := squirrel.Insert("posts").
		Columns("title", "content", "excerpt", "tags", "created_at", "updated_at").
		Values(in.Title, in.Content, in.Excerpt, in.Tags, squirrel.Expr("NOW()"), squirrel.Expr("NOW()")).
		Suffix("RETURNING " + postColumns).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}
	var p post.Post
	if err := pgxscan.Get(ctx, r.store.db, &p, query, args...); err != nil {
		return nil, r.store.fail(ctx, "create post", err)
	}
	return &p, nil
}

// Update writes the columns present in patch and refreshes updated_at,
// never moving it backwards.
func (r *PostRepo) Update(ctx context.Context, id int64, patch *post.Patch) (*post.Post, error) {
	b := squirrel.Update("posts")
	if patch.Title.Set {
		b = b.Set("title", patch.Title.Value)
	}
	if patch.Content.Set {
		b = b.Set("content", patch.Content.Value)
	}
	if patch.Excerpt.Set {
		b = b.Set("excerpt", patch.Excerpt.Value)
	}
	if patch.Tags.Set {
		b = b.Set("tags", patch.Tags.Value)
	}
	query, args, err := b.
		Set("updated_at", squirrel.Expr("GREATEST(NOW(), updated_at)")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + postColumns).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	var p post.Post
	if err := pgxscan.Get(ctx, r.store.db, &p, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, post.ErrNotFound
		}
		return nil, r.store.fail(ctx, "update post", err)
	}
	return &p, nil
}

// Delete removes a post permanently.
func (r *PostRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := squirrel.Delete("posts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	tag, err := r.store.db.Exec(ctx, query, args...)
	if err != nil {
		return r.store.fail(ctx, "delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return post.ErrNotFound
	}
	return nil
}

// Count returns the number of stored posts.
func (r *PostRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.db.QueryRow(ctx, countPostsSQL).Scan(&n); err != nil {
		return 0, r.store.fail(ctx, "count posts", err)
	}
	return n, nil
}
