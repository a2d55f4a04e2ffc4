package postgres

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/devopsblog/blog/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
)

// DB is the query surface shared by pgxpool.Pool and pgxmock pools.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// FaultHandler is invoked once when the pool reports an unrecoverable error.
type FaultHandler func(err error)

type Option func(*Store)

// WithFaultHandler installs the handler called on pool-level faults.
func WithFaultHandler(h FaultHandler) Option {
	return func(s *Store) { s.onFault = h }
}

// WithMeterProvider exports pool gauges through mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Store) { s.meterProvider = mp }
}

// Store owns the connection pool and exposes the query primitive used by the
// repositories, health checks and metrics.
type Store struct {
	db            DB
	pool          *pgxpool.Pool
	cfg           *Config
	metrics       *poolMetrics
	meterProvider metric.MeterProvider
	onFault       FaultHandler
	faultOnce     sync.Once
}

// NewStore builds the pgx pool. Connections are opened lazily; Initialize
// verifies connectivity.
func NewStore(ctx context.Context, cfg *Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: config is required")
	}
	poolCfg, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	s := newStore(pool, cfg, opts...)
	s.pool = pool
	if s.meterProvider != nil {
		m, mErr := newPoolMetrics(s.meterProvider, pool)
		if mErr != nil {
			logger.FromContext(ctx).Warn("Postgres pool metrics not initialized; continuing without metrics", "error", mErr)
		}
		s.metrics = m
	}
	logger.FromContext(ctx).With(
		"store_driver", "postgres",
		"host", cfg.Host,
		"port", cfg.Port,
		"db_name", cfg.DBName,
		"max_conns", poolCfg.MaxConns,
		"idle_timeout", poolCfg.MaxConnIdleTime,
		"connect_timeout", poolCfg.ConnConfig.ConnectTimeout,
	).Info("Store created")
	return s, nil
}

// NewStoreWithDB wraps an existing DB, typically a pgxmock pool in tests.
func NewStoreWithDB(db DB, cfg *Config, opts ...Option) *Store {
	if cfg == nil {
		cfg = &Config{}
	}
	return newStore(db, cfg, opts...)
}

func newStore(db DB, cfg *Config, opts ...Option) *Store {
	s := &Store{db: db, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func buildPoolConfig(cfg *Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConns = clampConns(cfg.MaxConns)
	poolCfg.MinConns = 0
	poolCfg.MaxConnIdleTime = defaultIdleTimeout
	if cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	return poolCfg, nil
}

func clampConns(n int) int32 {
	if n <= 0 {
		return defaultMaxConns
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}

// Execute runs a parameterized statement and returns the result rows keyed
// by column name.
func (s *Store) Execute(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, s.fail(ctx, "execute", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, s.fail(ctx, "execute", err)
	}
	return result, nil
}

// HealthCheck runs a trivial query.
func (s *Store) HealthCheck(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()
	if _, err := s.db.Exec(hctx, "SELECT 1"); err != nil {
		return s.fail(ctx, "health check", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (s *Store) Close(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.unregister()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	logger.FromContext(ctx).Info("Postgres store closed")
}

// fail wraps err in a StorageError and reports pool faults.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	if isPoolFault(err) {
		s.reportFault(ctx, op, err)
	}
	return &StorageError{Op: op, Err: err}
}

func (s *Store) reportFault(ctx context.Context, op string, err error) {
	if s.onFault == nil {
		return
	}
	s.faultOnce.Do(func() {
		logger.FromContext(ctx).Error("Postgres pool fault", "op", op, "error", err)
		s.onFault(err)
	})
}
