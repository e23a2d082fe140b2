package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values shared by decision and propagation counters
const (
	OutcomeAllowed   = "allowed"
	OutcomeDenied    = "denied"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Metrics holds all Prometheus metrics.
// All Record* helpers are safe to call on a nil *Metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthorizationDecisionsTotal *prometheus.CounterVec

	// Webhook metrics
	WebhookPropagationsTotal *prometheus.CounterVec
	WebhookDispatchDuration  *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenancy_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		AuthorizationDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_authorization_decisions_total",
				Help: "Authorization checks by check name and outcome",
			},
			[]string{"check", "outcome"},
		),

		WebhookPropagationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_webhook_propagations_total",
				Help: "Webhook calls by trigger and outcome",
			},
			[]string{"trigger", "outcome"},
		),
		WebhookDispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenancy_webhook_dispatch_duration_seconds",
				Help:    "Wall time of one webhook fan-out",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"trigger"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tenancy_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tenancy_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthorizationDecisionsTotal,
		m.WebhookPropagationsTotal,
		m.WebhookDispatchDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// RecordAuthorization counts one authorization check; a nil err is "allowed"
func (m *Metrics) RecordAuthorization(check string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeAllowed
	if err != nil {
		outcome = OutcomeDenied
	}
	m.AuthorizationDecisionsTotal.WithLabelValues(check, outcome).Inc()
}

// RecordPropagation counts one webhook call
func (m *Metrics) RecordPropagation(trigger string, succeeded bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSucceeded
	if !succeeded {
		outcome = OutcomeFailed
	}
	m.WebhookPropagationsTotal.WithLabelValues(trigger, outcome).Inc()
}

// ObserveDispatch records the wall time of one fan-out
func (m *Metrics) ObserveDispatch(trigger string, d time.Duration) {
	if m == nil {
		return
	}
	m.WebhookDispatchDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

// RecordCache counts a hit or miss for the named cache
func (m *Metrics) RecordCache(cacheType string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cacheType).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cacheType).Inc()
}

// RecordDBStats copies pool gauges from database/sql
func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Paths are labelled with the mux route template when one matched.
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler exposes the registry in the Prometheus text format
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
