package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/devopsblog/blog/engine/infra/monitoring/metrics"
	"github.com/devopsblog/blog/pkg/logger"
)

// RequestRecorder counts completed requests.
type RequestRecorder interface {
	Inc(method string, status int)
}

type instruments struct {
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newInstruments(meter metric.Meter) *instruments {
	if meter == nil {
		return nil
	}
	duration, err := meter.Float64Histogram(
		metrics.HTTPRequestDuration,
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.HTTPDurationBuckets...),
	)
	if err != nil {
		logger.GetDefault().Error("Failed to create http request duration histogram", "error", err)
		return nil
	}
	inFlight, err := meter.Int64UpDownCounter(
		metrics.HTTPRequestsActive,
		metric.WithDescription("Currently active HTTP requests"),
	)
	if err != nil {
		logger.GetDefault().Error("Failed to create http requests in flight counter", "error", err)
		return nil
	}
	return &instruments{duration: duration, inFlight: inFlight}
}

// HTTPMetrics returns a Gin middleware that counts requests and records their latency.
// Either argument may be nil.
func HTTPMetrics(meter metric.Meter, recorder RequestRecorder) gin.HandlerFunc {
	inst := newInstruments(meter)
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		if inst != nil {
			inst.inFlight.Add(ctx, 1)
			defer inst.inFlight.Add(ctx, -1)
		}

		c.Next()

		status := c.Writer.Status()
		if recorder != nil {
			recorder.Inc(c.Request.Method, status)
		}
		if inst == nil {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		inst.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", path),
			attribute.Int("status_code", status),
		))
	}
}
