package monitoring

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "value_compass"

// Metrics holds the Prometheus collectors of the service. Each instance owns
// its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	portraitsBuilt   *prometheus.CounterVec
	answersRejected  *prometheus.CounterVec
	alignmentScores  prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
	rateLimitBlocks  *prometheus.CounterVec
	rateLimitBackend *prometheus.CounterVec

	requestCount atomic.Int64
	errorCount   atomic.Int64
	startTime    time.Time
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		portraitsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portrait",
			Name:      "builds_total",
			Help:      "Portrait builds by source (submit, preview, cli).",
		}, []string{"source"}),
		answersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portrait",
			Name:      "answers_rejected_total",
			Help:      "Answers rejected by reason.",
		}, []string{"reason"}),
		alignmentScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "alignment",
			Name:      "overall_score",
			Help:      "Distribution of overall alignment scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		rateLimitBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "blocked_total",
			Help:      "Requests blocked by the rate limiter.",
		}, []string{"scope"}),
		rateLimitBackend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limit decisions by backend (redis, memory).",
		}, []string{"backend"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.portraitsBuilt,
		m.answersRejected,
		m.alignmentScores,
		m.cacheLookups,
		m.rateLimitBlocks,
		m.rateLimitBackend,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest counts a finished HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestCount.Add(1)
	if status >= 400 {
		m.errorCount.Add(1)
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordPortraitBuilt counts a successful portrait build.
func (m *Metrics) RecordPortraitBuilt(source string) {
	if m == nil {
		return
	}
	m.portraitsBuilt.WithLabelValues(source).Inc()
}

// RecordAnswerRejected counts an answer batch rejected for reason.
func (m *Metrics) RecordAnswerRejected(reason string) {
	if m == nil {
		return
	}
	m.answersRejected.WithLabelValues(reason).Inc()
}

// RecordAlignment observes an overall alignment score.
func (m *Metrics) RecordAlignment(score int) {
	if m == nil {
		return
	}
	m.alignmentScores.Observe(float64(score))
}

// RecordCache counts a cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordRateLimitBlock counts a blocked request.
func (m *Metrics) RecordRateLimitBlock(scope string) {
	if m == nil {
		return
	}
	m.rateLimitBlocks.WithLabelValues(scope).Inc()
}

// RecordRateLimitDecision counts which backend made a rate limit decision.
func (m *Metrics) RecordRateLimitDecision(backend string) {
	if m == nil {
		return
	}
	m.rateLimitBackend.WithLabelValues(backend).Inc()
}

// GetStats returns a small summary for the health endpoint.
func (m *Metrics) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"request_count":  m.requestCount.Load(),
		"error_count":    m.errorCount.Load(),
		"uptime_seconds": int64(time.Since(m.startTime).Seconds()),
	}
}
