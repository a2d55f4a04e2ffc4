package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "blog.postgres"

// poolMetrics publishes pgxpool statistics as observable gauges.
type poolMetrics struct {
	registration metric.Registration
}

func newPoolMetrics(mp metric.MeterProvider, pool *pgxpool.Pool) (*poolMetrics, error) {
	meter := mp.Meter(meterName)
	acquired, err := meter.Int64ObservableGauge(
		"blog_db_pool_acquired_conns",
		metric.WithDescription("Connections currently checked out of the pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquired gauge: %w", err)
	}
	idle, err := meter.Int64ObservableGauge(
		"blog_db_pool_idle_conns",
		metric.WithDescription("Idle connections held by the pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: idle gauge: %w", err)
	}
	total, err := meter.Int64ObservableGauge(
		"blog_db_pool_total_conns",
		metric.WithDescription("Open connections, acquired or idle"),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: total gauge: %w", err)
	}
	maxConns, err := meter.Int64ObservableGauge(
		"blog_db_pool_max_conns",
		metric.WithDescription("Configured pool size"),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: max gauge: %w", err)
	}
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := pool.Stat()
		o.ObserveInt64(acquired, int64(stats.AcquiredConns()))
		o.ObserveInt64(idle, int64(stats.IdleConns()))
		o.ObserveInt64(total, int64(stats.TotalConns()))
		o.ObserveInt64(maxConns, int64(stats.MaxConns()))
		return nil
	}, acquired, idle, total, maxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: register pool callback: %w", err)
	}
	return &poolMetrics{registration: reg}, nil
}

func (p *poolMetrics) unregister() {
	if p == nil || p.registration == nil {
		return
	}
	_ = p.registration.Unregister()
}
