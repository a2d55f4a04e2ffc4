package monitoring

import (
	"strconv"
	"sync"
	"sync/atomic"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/devopsblog/blog/engine/infra/monitoring/metrics"
)

type requestKey struct {
	method string
	status int
}

// RequestCounter counts handled HTTP requests by method and status. It is
// safe for concurrent use and doubles as a Prometheus collector.
type RequestCounter struct {
	total    atomic.Uint64
	counters sync.Map // requestKey -> *atomic.Uint64
	desc     *prom.Desc
}

// NewRequestCounter returns a zeroed counter.
func NewRequestCounter() *RequestCounter {
	return &RequestCounter{
		desc: prom.NewDesc(
			metrics.HTTPRequestsTotal,
			"Total number of HTTP requests",
			[]string{"method", "status"},
			nil,
		),
	}
}

// Inc records one request.
func (c *RequestCounter) Inc(method string, status int) {
	c.total.Add(1)
	key := requestKey{method: method, status: status}
	if v, ok := c.counters.Load(key); ok {
		v.(*atomic.Uint64).Add(1)
		return
	}
	v, _ := c.counters.LoadOrStore(key, new(atomic.Uint64))
	v.(*atomic.Uint64).Add(1)
}

// Total returns the number of requests recorded across all labels.
func (c *RequestCounter) Total() uint64 {
	return c.total.Load()
}

// Value returns the count for a single method/status pair.
func (c *RequestCounter) Value(method string, status int) uint64 {
	v, ok := c.counters.Load(requestKey{method: method, status: status})
	if !ok {
		return 0
	}
	return v.(*atomic.Uint64).Load()
}

func (c *RequestCounter) Describe(ch chan<- *prom.Desc) {
	ch <- c.desc
}

func (c *RequestCounter) Collect(ch chan<- prom.Metric) {
	c.counters.Range(func(k, v any) bool {
		key := k.(requestKey)
		ch <- prom.MustNewConstMetric(
			c.desc,
			prom.CounterValue,
			float64(v.(*atomic.Uint64).Load()),
			key.method,
			strconv.Itoa(key.status),
		)
		return true
	})
}
