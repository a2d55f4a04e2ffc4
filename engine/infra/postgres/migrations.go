package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/devopsblog/blog/pkg/logger"
	"github.com/pressly/goose/v3"

	// Register pgx stdlib driver for database/sql usage in migrations.
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	migrationLockTimeout = 45 * time.Second
	migrationsDir        = "migrations"
	lockQuery            = "SELECT pg_advisory_lock(hashtext('blog'), hashtext('migrations'))"
	unlockQuery          = "SELECT pg_advisory_unlock(hashtext('blog'), hashtext('migrations'))"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

func openMigrationDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db for migrations: %w", err)
	}
	return db, nil
}

// ApplyMigrations brings the posts schema up to date. Runners on other
// hosts block on an advisory lock until the current one finishes.
func ApplyMigrations(ctx context.Context, dsn string) error {
	db, err := openMigrationDB(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire dedicated connection: %w", err)
	}
	defer conn.Close()
	unlock, err := advisoryLock(ctx, conn)
	if err != nil {
		return err
	}
	defer unlock()
	return withGoose(func() error {
		if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		logger.FromContext(ctx).Debug("Schema migrations applied")
		return nil
	})
}

func advisoryLock(ctx context.Context, conn *sql.Conn) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, migrationLockTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, lockQuery); err != nil {
		return nil, fmt.Errorf("acquire migration advisory lock: %w", err)
	}
	return func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), unlockQuery); err != nil {
			logger.FromContext(ctx).Warn("Failed to release migration advisory lock", "error", err)
		}
	}, nil
}

// MigrationStatus writes the applied state of every embedded migration to w.
func MigrationStatus(ctx context.Context, dsn string, w io.Writer) error {
	db, err := openMigrationDB(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return withGoose(func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read migration version: %w", err)
		}
		migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
		if err != nil {
			return fmt.Errorf("collect migrations: %w", err)
		}
		for _, m := range migrations {
			state := "pending"
			if m.Version <= current {
				state = "applied"
			}
			if _, err := fmt.Fprintf(w, "%05d  %-8s %s\n", m.Version, state, m.Source); err != nil {
				return err
			}
		}
		return nil
	})
}

func withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn()
}
