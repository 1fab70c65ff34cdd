package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all Prometheus metrics for the service.
// It implements identity.MetricsCollector.
type Collector struct {
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cachePurged      prometheus.Counter
	upstreamFailures *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dayscape_userinfo_cache_hits_total",
			Help: "Identity cache lookups served without an upstream call.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dayscape_userinfo_cache_misses_total",
			Help: "Identity cache lookups that required an upstream call.",
		}),
		cachePurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dayscape_userinfo_cache_purged_total",
			Help: "Expired identity cache entries removed by lazy sweeps.",
		}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dayscape_userinfo_upstream_failures_total",
			Help: "Identity provider calls that returned a non-2xx status.",
		}, []string{"status_code"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dayscape_http_requests_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dayscape_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		c.cacheHits,
		c.cacheMisses,
		c.cachePurged,
		c.upstreamFailures,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordCacheHit()  { c.cacheHits.Inc() }
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Inc() }

func (c *Collector) RecordEntriesPurged(n int) { c.cachePurged.Add(float64(n)) }

func (c *Collector) RecordUpstreamFailure(statusCode int) {
	c.upstreamFailures.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// Handler exposes the registry for scraping at /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
