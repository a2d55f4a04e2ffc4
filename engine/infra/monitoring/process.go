package monitoring

import (
	"context"
	"runtime"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/procfs"

	"github.com/devopsblog/blog/engine/infra/monitoring/metrics"
	"github.com/devopsblog/blog/pkg/logger"
)

// newUptimeCounter exposes seconds since start as a monotonically increasing counter.
func newUptimeCounter(start time.Time) prom.CounterFunc {
	return prom.NewCounterFunc(prom.CounterOpts{
		Name: metrics.UptimeSeconds,
		Help: "Process uptime in seconds",
	}, func() float64 {
		return time.Since(start).Seconds()
	})
}

// memoryCollector reports resident set size and Go heap usage.
type memoryCollector struct {
	desc *prom.Desc
	rss  func() (int, error)
}

func newMemoryCollector() *memoryCollector {
	return &memoryCollector{
		desc: prom.NewDesc(
			metrics.MemoryUsageBytes,
			"Process memory usage in bytes",
			[]string{"type"},
			nil,
		),
		rss: residentMemory,
	}
}

func residentMemory() (int, error) {
	proc, err := procfs.Self()
	if err != nil {
		return 0, err
	}
	stat, err := proc.Stat()
	if err != nil {
		return 0, err
	}
	return stat.ResidentMemory(), nil
}

func (m *memoryCollector) Describe(ch chan<- *prom.Desc) {
	ch <- m.desc
}

func (m *memoryCollector) Collect(ch chan<- prom.Metric) {
	if rss, err := m.rss(); err == nil {
		ch <- prom.MustNewConstMetric(m.desc, prom.GaugeValue, float64(rss), "rss")
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	ch <- prom.MustNewConstMetric(m.desc, prom.GaugeValue, float64(stats.HeapSys), "heapTotal")
	ch <- prom.MustNewConstMetric(m.desc, prom.GaugeValue, float64(stats.HeapAlloc), "heapUsed")
}

// PostCounter reports how many posts are stored.
type PostCounter interface {
	Count(ctx context.Context) (int, error)
}

// postsCollector queries the post count on every scrape. A failed query
// omits the metric for that scrape and is logged.
type postsCollector struct {
	desc    *prom.Desc
	counter PostCounter
	timeout time.Duration
	log     logger.Logger
}

func newPostsCollector(counter PostCounter, timeout time.Duration, log logger.Logger) *postsCollector {
	return &postsCollector{
		desc:    prom.NewDesc(metrics.PostsTotal, "Total number of blog posts", nil, nil),
		counter: counter,
		timeout: timeout,
		log:     log,
	}
}

func (p *postsCollector) Describe(ch chan<- *prom.Desc) {
	ch <- p.desc
}

func (p *postsCollector) Collect(ch chan<- prom.Metric) {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	count, err := p.counter.Count(ctx)
	if err != nil {
		p.log.Error("Failed to collect post count", "error", err)
		return
	}
	ch <- prom.MustNewConstMetric(p.desc, prom.GaugeValue, float64(count))
}
