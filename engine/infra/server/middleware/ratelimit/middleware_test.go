package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/devopsblog/blog/pkg/config"
	"github.com/devopsblog/blog/pkg/logger"
)

func init() {
	logger.InitForTests()
}

func buildRouterForTest(t *testing.T, cfg *Config, mgr **Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m, err := NewManager(cfg, nil, nil)
	require.NoError(t, err)
	if mgr != nil {
		*mgr = m
	}
	r.Use(m.Middleware())
	r.GET("/api/posts", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/health", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/health/live", func(c *gin.Context) { c.String(200, "ok") })
	return r
}

func doReq(r *gin.Engine, path, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if ip != "" {
		req.Header.Set("X-Real-IP", ip)
	}
	r.ServeHTTP(w, req)
	return w
}

func testConfig(limit int64, period time.Duration) *Config {
	cfg := DefaultConfig()
	cfg.Limit = limit
	cfg.Period = period
	cfg.Prefix = "test:ratelimit"
	return cfg
}

func TestMiddleware(t *testing.T) {
	t.Run("Should block the second request from the same IP", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, time.Second), nil)
		require.Equal(t, http.StatusOK, doReq(r, "/api/posts", "1.2.3.4").Code)
		res := doReq(r, "/api/posts", "1.2.3.4")
		assert.Equal(t, http.StatusTooManyRequests, res.Code)
		assert.Contains(t, res.Body.String(), "RATE_LIMITED")
	})

	t.Run("Should track clients separately", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, time.Minute), nil)
		require.Equal(t, http.StatusOK, doReq(r, "/api/posts", "1.1.1.1").Code)
		assert.Equal(t, http.StatusOK, doReq(r, "/api/posts", "2.2.2.2").Code)
	})

	t.Run("Should refill after the period", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, 100*time.Millisecond), nil)
		require.Equal(t, http.StatusOK, doReq(r, "/api/posts", "5.6.7.8").Code)
		require.Equal(t, http.StatusTooManyRequests, doReq(r, "/api/posts", "5.6.7.8").Code)
		time.Sleep(150 * time.Millisecond)
		assert.Equal(t, http.StatusOK, doReq(r, "/api/posts", "5.6.7.8").Code)
	})

	t.Run("Should set rate limit headers", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(2, time.Minute), nil)
		res := doReq(r, "/api/posts", "9.9.9.9")
		assert.Equal(t, "2", res.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", res.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, res.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("Should never limit health checks", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, time.Minute), nil)
		for range 5 {
			assert.Equal(t, http.StatusOK, doReq(r, "/health", "3.3.3.3").Code)
			assert.Equal(t, http.StatusOK, doReq(r, "/health/live", "3.3.3.3").Code)
		}
	})

	t.Run("Should count blocked requests", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		m, err := NewManager(testConfig(1, time.Minute), nil, provider.Meter("test"))
		require.NoError(t, err)
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(m.Middleware())
		r.GET("/api/posts", func(c *gin.Context) { c.String(200, "ok") })
		doReq(r, "/api/posts", "4.4.4.4")
		doReq(r, "/api/posts", "4.4.4.4")

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		var total int64
		for _, sm := range rm.ScopeMetrics {
			for _, metric := range sm.Metrics {
				if sum, ok := metric.Data.(metricdata.Sum[int64]); ok && metric.Name == "rate_limit_blocks_total" {
					for _, dp := range sum.DataPoints {
						total += dp.Value
					}
				}
			}
		}
		assert.Equal(t, int64(1), total)
	})
}

func TestNewManager(t *testing.T) {
	t.Run("Should reject a non-positive period", func(t *testing.T) {
		_, err := NewManager(testConfig(1, 0), nil, nil)
		assert.ErrorContains(t, err, "period must be positive")
	})
}

func TestRedisStore(t *testing.T) {
	t.Run("Should share counters through redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		cfg := testConfig(1, time.Minute)
		first, err := NewManager(cfg, client, nil)
		require.NoError(t, err)
		second, err := NewManager(cfg, client, nil)
		require.NoError(t, err)

		gin.SetMode(gin.TestMode)
		r1 := gin.New()
		r1.Use(first.Middleware())
		r1.GET("/api/posts", func(c *gin.Context) { c.String(200, "ok") })
		r2 := gin.New()
		r2.Use(second.Middleware())
		r2.GET("/api/posts", func(c *gin.Context) { c.String(200, "ok") })

		require.Equal(t, http.StatusOK, doReq(r1, "/api/posts", "7.7.7.7").Code)
		assert.Equal(t, http.StatusTooManyRequests, doReq(r2, "/api/posts", "7.7.7.7").Code)
		assert.NotEmpty(t, mr.Keys())
	})

	t.Run("Should connect from a redis URL", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
		require.NoError(t, err)
		assert.NoError(t, client.Close())
	})

	t.Run("Should fail when redis is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := NewRedisClient(context.Background(), "redis://"+addr)
		assert.ErrorContains(t, err, "unreachable")
	})

	t.Run("Should reject a malformed URL", func(t *testing.T) {
		_, err := NewRedisClient(context.Background(), "http://nope")
		assert.ErrorContains(t, err, "invalid rate limit redis url")
	})
}

func TestConfigFrom(t *testing.T) {
	t.Run("Should map limits and exempt a custom metrics path", func(t *testing.T) {
		app := config.Default()
		app.RateLimit.Limit = 30
		app.RateLimit.Period = 10 * time.Second
		app.Monitoring.Path = "/internal/metrics"
		cfg := ConfigFrom(app)
		assert.True(t, cfg.Enabled())
		assert.Equal(t, int64(30), cfg.Limit)
		assert.Equal(t, 10*time.Second, cfg.Period)
		assert.Contains(t, cfg.ExcludedPaths, "/internal/metrics")
		assert.Contains(t, cfg.ExcludedPaths, "/health")
		assert.Empty(t, cfg.RedisURL)
	})

	t.Run("Should be disabled by default", func(t *testing.T) {
		assert.False(t, ConfigFrom(config.Default()).Enabled())
	})
}
