package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestPoolMetrics(t *testing.T) {
	t.Run("Should observe configured pool size without connecting", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })
		store, err := NewStore(t.Context(), &Config{
			ConnString: "postgres://blog@127.0.0.1:1/blog?sslmode=disable",
			MaxConns:   7,
		}, WithMeterProvider(provider))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close(t.Context()) })

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(t.Context(), &rm))

		values := map[string]int64{}
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				gauge, ok := m.Data.(metricdata.Gauge[int64])
				if !ok || len(gauge.DataPoints) == 0 {
					continue
				}
				values[m.Name] = gauge.DataPoints[0].Value
			}
		}
		assert.Equal(t, int64(7), values["blog_db_pool_max_conns"])
		assert.Equal(t, int64(0), values["blog_db_pool_acquired_conns"])
		assert.Contains(t, values, "blog_db_pool_idle_conns")
		assert.Contains(t, values, "blog_db_pool_total_conns")
	})

	t.Run("Should stop observing after close", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })
		store, err := NewStore(t.Context(), &Config{ConnString: "postgres://blog@127.0.0.1:1/blog"}, WithMeterProvider(provider))
		require.NoError(t, err)
		store.Close(t.Context())

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(t.Context(), &rm))

		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				gauge, ok := m.Data.(metricdata.Gauge[int64])
				if ok {
					assert.Empty(t, gauge.DataPoints, m.Name)
				}
			}
		}
	})
}
