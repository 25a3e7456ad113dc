package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/infuse/internal"
)

// DefaultMetricsPath is where Register mounts the scrape endpoint.
const DefaultMetricsPath = "/metrics"

// unmatchedRoute labels requests no route accepted, keeping label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Namespace string
	Subsystem string
	Buckets   []float64
	Path      string
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the metric namespace.
func WithMetricsNamespace(ns string) MetricsOption {
	return func(cfg *MetricsConfig) { cfg.Namespace = ns }
}

// WithMetricsBuckets sets the latency histogram buckets.
func WithMetricsBuckets(buckets ...float64) MetricsOption {
	return func(cfg *MetricsConfig) { cfg.Buckets = buckets }
}

// WithMetricsPath sets the scrape endpoint path.
func WithMetricsPath(path string) MetricsOption {
	return func(cfg *MetricsConfig) { cfg.Path = path }
}

// Metrics holds the HTTP collectors shared by every module instance.
// It is safe for concurrent use.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	responseSize *prometheus.HistogramVec
	gatherer     prometheus.Gatherer
	path         string
}

// NewMetrics registers the HTTP collectors on reg.
func NewMetrics(reg *prometheus.Registry, opts ...MetricsOption) *Metrics {
	cfg := &MetricsConfig{
		Namespace: "infuse",
		Subsystem: "http",
		Buckets:   prometheus.DefBuckets,
		Path:      DefaultMetricsPath,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   cfg.Buckets,
		}, []string{"method", "route"}),
		responseSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
		}, []string{"method", "route"}),
		gatherer: reg,
		path:     cfg.Path,
	}
}

// Path returns where the scrape endpoint is mounted.
func (m *Metrics) Path() string { return m.path }

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Factory returns the module that records each response when it is sent.
// The route label is the matched route pattern, not the raw path.
func (m *Metrics) Factory() internal.MiddlewareFactory {
	return func() internal.Middleware {
		return internal.MiddlewareFunc(func(req *internal.Request, res *internal.Response) error {
			start := time.Now()
			res.OnSend(func(r *internal.Response) {
				route := routePattern(req)
				m.requests.WithLabelValues(req.Method(), route, strconv.Itoa(r.Code())).Inc()
				m.duration.WithLabelValues(req.Method(), route).Observe(time.Since(start).Seconds())
				m.responseSize.WithLabelValues(req.Method(), route).Observe(float64(len(r.Body())))
			})
			return nil
		})
	}
}

func routePattern(req *internal.Request) string {
	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}
