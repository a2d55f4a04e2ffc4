package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/devopsblog/blog/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"
	"gopkg.in/yaml.v3"
)

const (
	createPostsTableSQL = `CREATE TABLE IF NOT EXISTS posts (
	id SERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	content TEXT NOT NULL,
	excerpt TEXT,
	tags VARCHAR(255),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	createPostsIndexSQL = `CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC, id DESC)`
	countPostsSQL       = `SELECT COUNT(*) FROM posts`
	lockPostsSQL        = `LOCK TABLE posts IN SHARE ROW EXCLUSIVE MODE`
)

//go:embed seed/posts.yaml
var seedManifest []byte

// SeedPost is one entry of the embedded sample content.
type SeedPost struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Excerpt string `yaml:"excerpt"`
	Tags    string `yaml:"tags"`
}

// SeedPosts decodes the embedded sample posts.
func SeedPosts() ([]SeedPost, error) {
	var manifest struct {
		Posts []SeedPost `yaml:"posts"`
	}
	if err := yaml.Unmarshal(seedManifest, &manifest); err != nil {
		return nil, fmt.Errorf("decoding seed manifest: %w", err)
	}
	return manifest.Posts, nil
}

// Initialize verifies connectivity, creates the posts table when absent and
// seeds sample posts into an empty table. Each failed attempt is retried
// after a fixed delay; once attempts are exhausted a *FatalInitError is
// returned and the caller is expected to stop the process.
func (s *Store) Initialize(ctx context.Context) error {
	log := logger.FromContext(ctx)
	maxAttempts := s.cfg.initAttempts()
	delay := s.cfg.initDelay()
	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewConstant(delay))
	attempt := 0
	start := time.Now()
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		log.Info("Initializing database", "attempt", attempt, "max_attempts", maxAttempts)
		if err := s.initializeOnce(ctx); err != nil {
			log.Warn("Database initialization attempt failed",
				"attempt", attempt,
				"remaining", maxAttempts-attempt,
				"retry_in", delay,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		log.Error("Database initialization failed after all attempts",
			"attempts", attempt,
			"elapsed", time.Since(start),
			"error", err,
		)
		return &FatalInitError{Attempts: attempt, Err: err}
	}
	log.Info("Database initialization completed", "attempts", attempt)
	return nil
}

func (s *Store) initializeOnce(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return s.fail(ctx, "ping", err)
	}
	if _, err := s.db.Exec(ctx, createPostsTableSQL); err != nil {
		return s.fail(ctx, "create posts table", err)
	}
	if _, err := s.db.Exec(ctx, createPostsIndexSQL); err != nil {
		return s.fail(ctx, "create posts index", err)
	}
	var count int
	if err := s.db.QueryRow(ctx, countPostsSQL).Scan(&count); err != nil {
		return s.fail(ctx, "count posts", err)
	}
	if count > 0 {
		logger.FromContext(ctx).Info("Found existing posts, skipping seed", "count", count)
		return nil
	}
	return s.seed(ctx)
}

// seed inserts the sample posts. The table lock and recount keep concurrent
// initializers from seeding twice.
func (s *Store) seed(ctx context.Context) error {
	posts, err := SeedPosts()
	if err != nil {
		return err
	}
	inserted := 0
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockPostsSQL); err != nil {
			return err
		}
		var count int
		if err := tx.QueryRow(ctx, countPostsSQL).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, p := range posts {
			query, args, err := squirrel.Insert("posts").
				Columns("title", "content", "excerpt", "tags").
				Values(p.Title, p.Content, p.Excerpt, p.Tags).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("building seed insert: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, "seed posts", err)
	}
	logger.FromContext(ctx).Info("Seeded sample posts", "count", inserted)
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.FromContext(ctx).Warn("Transaction rollback failed", "error", rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()
	return fn(tx)
}
