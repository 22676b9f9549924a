package monitoring

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

// Metrics holds application metrics. Counters are exported through a private
// Prometheus registry and mirrored in atomics for the health endpoint.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	screenings      *prometheus.CounterVec
	overrides       prometheus.Counter
	failures        *prometheus.CounterVec
	rawScores       prometheus.Histogram
	rateLimited     prometheus.Counter

	requestCount   int64
	errorCount     int64
	screeningCount int64
	elevatedCount  int64
	failureCount   int64
	StartTime      time.Time
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aq10_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aq10_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"route"},
		),
		screenings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aq10_screenings_total",
				Help: "Completed screenings by risk outcome",
			},
			[]string{"outcome"},
		),
		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aq10_score_overrides_total",
			Help: "Screenings flagged only because the raw score reached the cutoff",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aq10_screening_failures_total",
				Help: "Aborted screenings by error category",
			},
			[]string{"category"},
		),
		rawScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aq10_raw_score",
			Help:    "Distribution of raw AQ-10 scores",
			Buckets: prometheus.LinearBuckets(0, 1, screening.ItemCount+1),
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aq10_rate_limited_total",
			Help: "Submissions rejected by the per-IP rate limit",
		}),
		StartTime: time.Now(),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.screenings,
		m.overrides,
		m.failures,
		m.rawScores,
		m.rateLimited,
		collectors.NewGoCollector(),
	)
	return m
}

// RecordRequest records one served HTTP request
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	atomic.AddInt64(&m.requestCount, 1)
	if status >= 400 {
		atomic.AddInt64(&m.errorCount, 1)
	}
	m.requests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordScreening records a completed screening
func (m *Metrics) RecordScreening(res screening.ScreeningResult) {
	atomic.AddInt64(&m.screeningCount, 1)
	outcome := "not_elevated"
	if res.ElevatedRisk {
		outcome = "elevated"
		atomic.AddInt64(&m.elevatedCount, 1)
	}
	m.screenings.WithLabelValues(outcome).Inc()
	m.rawScores.Observe(float64(res.RawScore))
	if res.OverrideApplied {
		m.overrides.Inc()
	}
}

// RecordFailure records an aborted screening
func (m *Metrics) RecordFailure(category string) {
	atomic.AddInt64(&m.failureCount, 1)
	m.failures.WithLabelValues(category).Inc()
}

// IncrementRateLimited records a rejected submission
func (m *Metrics) IncrementRateLimited() {
	m.rateLimited.Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GetStats returns a summary for the health endpoint
func (m *Metrics) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds":      time.Since(m.StartTime).Seconds(),
		"requests":            atomic.LoadInt64(&m.requestCount),
		"errors":              atomic.LoadInt64(&m.errorCount),
		"screenings":          atomic.LoadInt64(&m.screeningCount),
		"elevated_screenings": atomic.LoadInt64(&m.elevatedCount),
		"failed_screenings":   atomic.LoadInt64(&m.failureCount),
	}
}
