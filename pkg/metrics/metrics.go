// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tastebud/pkg/tracker"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebud_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tastebud_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// SweepDeleted counts expired query cache rows removed by the sweep.
	SweepDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tastebud_cache_sweep_deleted_total",
		Help: "Expired query cache rows removed by the sweep.",
	})
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// AddSweepDeleted records rows removed by a cache sweep.
func AddSweepDeleted(n int64) {
	if n > 0 {
		SweepDeleted.Add(float64(n))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// TrackerCollector exports tracker counters at scrape time.
type TrackerCollector struct {
	tr    *tracker.Tracker
	cache *prometheus.Desc
	api   *prometheus.Desc
}

// NewTrackerCollector wraps tr. Register it once per process.
func NewTrackerCollector(tr *tracker.Tracker) *TrackerCollector {
	return &TrackerCollector{
		tr: tr,
		cache: prometheus.NewDesc("tastebud_cache_lookups_total",
			"Cache lookups by provider and outcome.", []string{"provider", "outcome"}, nil),
		api: prometheus.NewDesc("tastebud_upstream_calls_total",
			"Upstream calls by provider and result.", []string{"provider", "result"}, nil),
	}
}

func (c *TrackerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cache
	ch <- c.api
}

func (c *TrackerCollector) Collect(ch chan<- prometheus.Metric) {
	for provider, s := range c.tr.Snapshot() {
		for outcome, v := range map[string]int64{
			"hit":     s.CacheHits,
			"miss":    s.CacheMisses,
			"expired": s.CacheExpired,
			"error":   s.CacheErrors,
		} {
			ch <- prometheus.MustNewConstMetric(c.cache, prometheus.CounterValue, float64(v), provider, outcome)
		}
		for result, v := range map[string]int64{
			"success": s.APISuccess,
			"failure": s.APIFailures,
			"empty":   s.APIZeroResult,
		} {
			ch <- prometheus.MustNewConstMetric(c.api, prometheus.CounterValue, float64(v), provider, result)
		}
	}
}
