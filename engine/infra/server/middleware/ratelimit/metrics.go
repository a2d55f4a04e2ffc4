package ratelimit

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type blockMetrics struct {
	blocked metric.Int64Counter
}

func newBlockMetrics(meter metric.Meter) (*blockMetrics, error) {
	if meter == nil {
		return &blockMetrics{}, nil
	}
	blocked, err := meter.Int64Counter(
		"rate_limit_blocks_total",
		metric.WithDescription("Total number of requests blocked by rate limiting"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	return &blockMetrics{blocked: blocked}, nil
}

func (m *blockMetrics) recordBlocked(ctx context.Context, route string) {
	if m == nil || m.blocked == nil {
		return
	}
	m.blocked.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}
