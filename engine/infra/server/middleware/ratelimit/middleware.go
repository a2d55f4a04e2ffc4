package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel/metric"

	"github.com/devopsblog/blog/engine/infra/server/router"
	"github.com/devopsblog/blog/pkg/logger"
)

// Manager limits requests per client IP.
type Manager struct {
	config  *Config
	limiter *limiter.Limiter
	metrics *blockMetrics
}

// NewManager builds a limiter from cfg. A nil rdb keeps counters in memory;
// meter may be nil.
func NewManager(cfg *Config, rdb redis.UniversalClient, meter metric.Meter) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	rate, err := cfg.rate()
	if err != nil {
		return nil, err
	}
	m, err := newBlockMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit metrics: %w", err)
	}
	store, err := newStore(cfg, rdb)
	if err != nil {
		return nil, err
	}
	return &Manager{
		config:  cfg,
		limiter: limiter.New(store, rate),
		metrics: m,
	}, nil
}

func newStore(cfg *Config, rdb redis.UniversalClient) (limiter.Store, error) {
	opts := limiter.StoreOptions{
		Prefix:          cfg.Prefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}
	if rdb == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	store, err := sredis.NewStoreWithOptions(rdb, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}
	return store, nil
}

// NewRedisClient connects to the Redis at rawURL and verifies it answers.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rate limit redis unreachable: %w", err)
	}
	return client, nil
}

// Middleware returns the gin handler enforcing the limit.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		lctx, err := m.limiter.Get(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Error("Rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
		if lctx.Reached {
			route := c.FullPath()
			if route == "" {
				route = c.Request.URL.Path
			}
			m.metrics.recordBlocked(ctx, route)
			router.RespondProblemWithCode(
				c,
				http.StatusTooManyRequests,
				router.ErrTooManyRequestsCode,
				"rate limit exceeded, retry later",
			)
			return
		}
		c.Next()
	}
}

func (m *Manager) excluded(path string) bool {
	for _, prefix := range m.config.ExcludedPaths {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
