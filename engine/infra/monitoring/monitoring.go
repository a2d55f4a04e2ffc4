package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/devopsblog/blog/engine/infra/monitoring/middleware"
	"github.com/devopsblog/blog/pkg/logger"
	"github.com/devopsblog/blog/pkg/version"
)

const meterName = "github.com/devopsblog/blog"

// Service owns the metrics registry, the OpenTelemetry meter provider that
// exports into it, and the HTTP request counter.
type Service struct {
	meter       metric.Meter
	provider    *sdkmetric.MeterProvider
	registry    *prom.Registry
	requests    *RequestCounter
	config      *Config
	startTime   time.Time
	initialized bool
}

// Option customizes a Service.
type Option func(*Service)

// WithStartTime sets the instant uptime is measured from.
func WithStartTime(t time.Time) Option {
	return func(s *Service) {
		s.startTime = t
	}
}

func newDisabledService(cfg *Config, requests *RequestCounter, start time.Time) *Service {
	return &Service{
		config:    cfg,
		meter:     noop.NewMeterProvider().Meter(meterName),
		requests:  requests,
		startTime: start,
	}
}

// NewMonitoringService builds the registry with the process and request
// collectors. The post count is added by TrackPosts once storage exists.
func NewMonitoringService(ctx context.Context, cfg *Config, opts ...Option) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	probe := &Service{startTime: time.Now()}
	for _, opt := range opts {
		opt(probe)
	}
	requests := NewRequestCounter()
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg, requests, probe.startTime), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	service := &Service{
		meter:       provider.Meter(meterName),
		provider:    provider,
		registry:    registry,
		requests:    requests,
		config:      cfg,
		startTime:   probe.startTime,
		initialized: true,
	}
	collectors := []prom.Collector{
		newUptimeCounter(service.startTime),
		newMemoryCollector(),
		requests,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			_ = provider.Shutdown(ctx)
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	service.recordBuildInfo(ctx)
	log.Info("Monitoring service initialized", "path", cfg.Path)
	return service, nil
}

// TrackPosts exports the post count, queried on every scrape through counter.
// It is a no-op when monitoring is disabled.
func (s *Service) TrackPosts(ctx context.Context, counter PostCounter) error {
	if !s.initialized || counter == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	if err := s.registry.Register(newPostsCollector(counter, s.config.CountTimeout, log)); err != nil {
		return fmt.Errorf("failed to register post collector: %w", err)
	}
	return nil
}

func (s *Service) recordBuildInfo(ctx context.Context) {
	gauge, err := s.meter.Float64Gauge(
		"blog_build_info",
		metric.WithDescription("Build information (value=1)"),
	)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to create build info gauge", "error", err)
		return
	}
	info := version.Get()
	gauge.Record(ctx, 1, metric.WithAttributes(
		attribute.String("service", s.config.ServiceName),
		attribute.String("version", info.Version),
		attribute.String("commit", info.CommitHash),
		attribute.String("go_version", info.GoVersion),
	))
}

// Meter returns the OpenTelemetry meter for custom instrumentation
func (s *Service) Meter() metric.Meter {
	return s.meter
}

// MeterProvider returns the provider backing Meter, or nil when disabled.
func (s *Service) MeterProvider() metric.MeterProvider {
	if s.provider == nil {
		return nil
	}
	return s.provider
}

// Requests returns the request counter.
func (s *Service) Requests() *RequestCounter {
	return s.requests
}

// StartTime returns the instant uptime is measured from.
func (s *Service) StartTime() time.Time {
	return s.startTime
}

// Path returns the route the exporter is mounted on.
func (s *Service) Path() string {
	return s.config.Path
}

// GinMiddleware returns Gin middleware for HTTP metrics.
func (s *Service) GinMiddleware() gin.HandlerFunc {
	if !s.initialized {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return middleware.HTTPMetrics(s.meter, s.requests)
}

// ExporterHandler returns an HTTP handler for the metrics endpoint
func (s *Service) ExporterHandler() http.Handler {
	if !s.initialized {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("Monitoring service not initialized")); err != nil {
				logger.FromContext(r.Context()).Error("Failed to write response", "error", err)
			}
		})
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the monitoring service
func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}

// IsInitialized returns whether the exporter is active.
func (s *Service) IsInitialized() bool {
	return s.initialized
}
