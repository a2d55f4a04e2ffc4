package metrics

// HTTPDurationBuckets defines latency buckets for HTTP request duration metrics.
var HTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metric names shared by the exporter and its tests. The uptime and memory
// series keep the names and type labels existing scrapers already query.
const (
	UptimeSeconds       = "nodejs_uptime_seconds"
	MemoryUsageBytes    = "nodejs_memory_usage_bytes"
	PostsTotal          = "blog_posts_total"
	HTTPRequestsTotal   = "http_requests_total"
	HTTPRequestDuration = "http_request_duration_seconds"
	HTTPRequestsActive  = "http_requests_in_flight"
)
