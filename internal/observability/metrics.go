package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics instruments the record set cache.
type CacheMetrics struct {
	Hits         prometheus.Counter
	Misses       prometheus.Counter
	LoadFailures prometheus.Counter
	LoadDuration prometheus.Histogram
	Records      prometheus.Gauge
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	return &CacheMetrics{
		Hits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "sales_dashboard_cache_hits_total",
			Help: "Record set lookups served from the cache.",
		}),
		Misses: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "sales_dashboard_cache_misses_total",
			Help: "Record set lookups that required a data source load.",
		}),
		LoadFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "sales_dashboard_cache_load_failures_total",
			Help: "Data source loads that failed.",
		}),
		LoadDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "sales_dashboard_cache_load_duration_seconds",
			Help:    "Time spent loading the record set from the data source.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		Records: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "sales_dashboard_cached_records",
			Help: "Number of records in the most recently loaded set.",
		}),
	}
}

// RenderMetrics instruments dashboard render passes.
type RenderMetrics struct {
	Renders  *prometheus.CounterVec
	Duration prometheus.Histogram
}

func NewRenderMetrics(reg prometheus.Registerer) *RenderMetrics {
	return &RenderMetrics{
		Renders: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sales_dashboard_renders_total",
			Help: "Dashboard render passes by outcome.",
		}, []string{"status"}),
		Duration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "sales_dashboard_render_duration_seconds",
			Help:    "Time spent filtering and aggregating one render pass.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// HTTPMetrics instruments the HTTP surface by route pattern.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	return &HTTPMetrics{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sales_dashboard_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		Duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sales_dashboard_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
