package monitoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/devopsblog/blog/pkg/config"
)

const defaultCountTimeout = 2 * time.Second

// Config holds configuration for the monitoring service
type Config struct {
	Enabled      bool
	Path         string
	ServiceName  string
	CountTimeout time.Duration
}

// DefaultConfig returns default monitoring configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Path:         "/metrics",
		ServiceName:  "personal-blog-backend",
		CountTimeout: defaultCountTimeout,
	}
}

// ConfigFrom maps application configuration onto the monitoring settings.
func ConfigFrom(cfg *config.Config) *Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	out.Enabled = cfg.Monitoring.Enabled
	if cfg.Monitoring.Path != "" {
		out.Path = cfg.Monitoring.Path
	}
	if cfg.Service.Name != "" {
		out.ServiceName = cfg.Service.Name
	}
	return out
}

// Validate validates the monitoring configuration
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("monitoring path cannot be empty")
	}
	if c.Path[0] != '/' {
		return fmt.Errorf("monitoring path must start with '/': got %s", c.Path)
	}
	if c.Path == "/api" || strings.HasPrefix(c.Path, "/api/") {
		return fmt.Errorf("monitoring path cannot be under /api/")
	}
	if strings.ContainsRune(c.Path, '?') {
		return fmt.Errorf("monitoring path cannot contain query parameters")
	}
	if c.CountTimeout < 0 {
		return fmt.Errorf("post count timeout must not be negative")
	}
	return nil
}
