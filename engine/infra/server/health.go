package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devopsblog/blog/pkg/config"
	"github.com/devopsblog/blog/pkg/logger"
)

const (
	statusReady    = "ready"
	statusNotReady = "not ready"
	statusAlive    = "alive"
	dbConnected    = "connected"
	dbDisconnected = "disconnected"
	healthOK       = "OK"
	healthDegraded = "Database connection failed"
)

// HealthChecker verifies database connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type healthHandlers struct {
	db      HealthChecker
	service config.ServiceConfig
	start   time.Time
	now     func() time.Time
}

func newHealthHandlers(db HealthChecker, service config.ServiceConfig, start time.Time) *healthHandlers {
	return &healthHandlers{db: db, service: service, start: start, now: time.Now}
}

// health reports uptime and database connectivity. A failed check answers 503.
//
//	GET /health
func (h *healthHandlers) health(c *gin.Context) {
	now := h.now()
	body := gin.H{
		"uptime":    now.Sub(h.start).Seconds(),
		"message":   healthOK,
		"timestamp": now.UnixMilli(),
		"service":   h.service.Name,
		"version":   h.service.Version,
		"database":  dbConnected,
	}
	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		logger.FromContext(c.Request.Context()).Warn("Health check failed", "error", err)
		body["message"] = healthDegraded
		body["database"] = dbDisconnected
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// ready reports whether the service can take traffic.
//
//	GET /health/ready
func (h *healthHandlers) ready(c *gin.Context) {
	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		logger.FromContext(c.Request.Context()).Warn("Readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": statusNotReady, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusReady})
}

// live always answers 200 while the process serves requests.
//
//	GET /health/live
func (h *healthHandlers) live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusAlive})
}
