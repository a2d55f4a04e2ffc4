package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"

	"github.com/devopsblog/blog/engine/infra/monitoring"
	"github.com/devopsblog/blog/engine/infra/server/middleware/ratelimit"
	"github.com/devopsblog/blog/engine/infra/server/router"
	postrouter "github.com/devopsblog/blog/engine/post/router"
	"github.com/devopsblog/blog/pkg/config"
	"github.com/devopsblog/blog/pkg/logger"
)

const (
	apiBasePath = "/api"
	corsMaxAge  = 12 * time.Hour
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Config     *config.Config
	Logger     logger.Logger
	Posts      postrouter.Service
	DB         HealthChecker
	Monitoring *monitoring.Service
	// RateLimitStore backs the rate limiter when set; nil keeps counters in memory.
	RateLimitStore redis.UniversalClient
	StartTime      time.Time
}

// NewRouter assembles middleware, health, metrics and post routes.
func NewRouter(deps *Dependencies) (*gin.Engine, error) {
	if deps == nil || deps.Config == nil {
		return nil, fmt.Errorf("server: router dependencies require a config")
	}
	if deps.Posts == nil || deps.DB == nil {
		return nil, fmt.Errorf("server: router dependencies require posts and database")
	}
	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	cfg := deps.Config
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		router.RespondInternal(c, fmt.Errorf("panic: %v", recovered))
	}))
	r.Use(LoggerMiddleware(log))
	if deps.Monitoring != nil {
		r.Use(deps.Monitoring.GinMiddleware())
	}
	if cfg.Server.CORSEnabled {
		r.Use(CORSMiddleware(cfg.Server.AllowedOrigins, corsMaxAge))
	}
	if rl := ratelimit.ConfigFrom(cfg); rl.Enabled() {
		var meter metric.Meter
		if deps.Monitoring != nil {
			meter = deps.Monitoring.Meter()
		}
		manager, err := ratelimit.NewManager(rl, deps.RateLimitStore, meter)
		if err != nil {
			return nil, fmt.Errorf("server: rate limiter: %w", err)
		}
		r.Use(manager.Middleware())
	}
	r.NoRoute(func(c *gin.Context) {
		router.RespondProblemWithCode(c, http.StatusNotFound, router.ErrNotFoundCode, "route not found")
	})

	start := deps.StartTime
	if start.IsZero() && deps.Monitoring != nil {
		start = deps.Monitoring.StartTime()
	}
	if start.IsZero() {
		start = time.Now()
	}
	health := newHealthHandlers(deps.DB, cfg.Service, start)
	r.GET("/health", health.health)
	r.GET("/health/ready", health.ready)
	r.GET("/health/live", health.live)

	if deps.Monitoring != nil && deps.Monitoring.IsInitialized() {
		r.GET(deps.Monitoring.Path(), gin.WrapH(deps.Monitoring.ExporterHandler()))
	}

	handler := postrouter.NewHandler(deps.Posts)
	postrouter.Register(r.Group(apiBasePath), handler)
	postrouter.Register(&r.RouterGroup, handler)
	return r, nil
}
