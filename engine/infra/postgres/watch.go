package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devopsblog/blog/pkg/logger"
)

// ErrPoolUnhealthy is reported when the background health check keeps failing.
var ErrPoolUnhealthy = errors.New("postgres: pool failed consecutive health checks")

// Watch runs HealthCheck every WatchInterval until ctx is done. Connection
// terminating errors reach the fault handler through HealthCheck at once.
// Other failures are counted, and WatchFailures of them in a row are reported
// as ErrPoolUnhealthy. Watch returns after reporting a fault.
func (s *Store) Watch(ctx context.Context) {
	interval := s.cfg.WatchInterval
	if interval <= 0 {
		return
	}
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	misses := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := s.HealthCheck(ctx)
		if err == nil {
			if misses > 0 {
				log.Info("Postgres health check recovered", "misses", misses)
			}
			misses = 0
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if isPoolFault(err) {
			return
		}
		misses++
		log.Warn("Postgres health check failed", "misses", misses, "error", err)
		if s.cfg.WatchFailures > 0 && misses >= s.cfg.WatchFailures {
			s.reportFault(ctx, "watch", fmt.Errorf("%w: %w", ErrPoolUnhealthy, err))
			return
		}
	}
}
