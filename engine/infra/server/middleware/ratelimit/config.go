package ratelimit

import (
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"

	"github.com/devopsblog/blog/pkg/config"
)

// Config represents rate limiting configuration
type Config struct {
	Limit  int64
	Period time.Duration
	Prefix string
	// RedisURL selects the Redis store; empty keeps counters in memory.
	RedisURL string
	// Requests whose path starts with one of these are never limited.
	ExcludedPaths []string
}

// DefaultConfig returns a disabled limiter configuration.
func DefaultConfig() *Config {
	return &Config{
		Period:        time.Minute,
		Prefix:        "blog:ratelimit",
		ExcludedPaths: []string{"/health", "/metrics"},
	}
}

// ConfigFrom maps application configuration onto limiter settings. The
// metrics path is always exempt.
func ConfigFrom(cfg *config.Config) *Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	out.Limit = cfg.RateLimit.Limit
	out.RedisURL = cfg.RateLimit.RedisURL.Value()
	if cfg.RateLimit.Period > 0 {
		out.Period = cfg.RateLimit.Period
	}
	if cfg.Monitoring.Path != "" && cfg.Monitoring.Path != "/metrics" {
		out.ExcludedPaths = append(out.ExcludedPaths, cfg.Monitoring.Path)
	}
	return out
}

// Enabled reports whether requests are limited at all.
func (c *Config) Enabled() bool {
	return c != nil && c.Limit > 0
}

func (c *Config) rate() (limiter.Rate, error) {
	if c.Period <= 0 {
		return limiter.Rate{}, fmt.Errorf("rate limit period must be positive: got %s", c.Period)
	}
	return limiter.Rate{Period: c.Period, Limit: c.Limit}, nil
}
