package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// StorageError wraps any failure reported by the database or the pool.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// FatalInitError is returned by Initialize once every attempt has failed.
type FatalInitError struct {
	Attempts int
	Err      error
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("database initialization failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *FatalInitError) Unwrap() error {
	return e.Err
}

// SQLSTATE codes sent when the server terminates sessions.
const (
	codeAdminShutdown = "57P01"
	codeCrashShutdown = "57P02"
)

// isPoolFault reports errors after which pooled connections cannot be trusted.
func isPoolFault(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeAdminShutdown || pgErr.Code == codeCrashShutdown
}
