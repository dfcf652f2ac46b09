package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. It implements the loader, bundle and
// session observers.
type Metrics struct {
	registry    *prometheus.Registry
	buildWindow *window

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Build metrics
	BuildsTotal   *prometheus.CounterVec
	BuildDuration prometheus.Histogram

	// Package host metrics
	FetchesTotal     *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	StubsSubstituted prometheus.Counter

	// Session and preview metrics
	ActiveSessions prometheus.Gauge
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	PreviewErrors  prometheus.Counter

	// Stage timings
	StageDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64            `json:"total_requests"`
	TotalErrors       int64            `json:"total_errors"`
	Builds            map[string]int64 `json:"builds"`
	Fetches           map[string]int64 `json:"fetches"`
	Stubs             int64            `json:"stubs"`
	PreviewErrors     int64            `json:"preview_errors"`
	ActiveSessions    int64            `json:"active_sessions"`
	ActiveConnections int64            `json:"active_connections"`
	TotalDuration     float64          `json:"-"` // sum of all request durations
	RequestCount      int64            `json:"-"` // count for averaging
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:    reg,
		buildWindow: newWindow(),
		startTime:   time.Now(),
		snapshot: MetricsSnapshot{
			Builds:  map[string]int64{},
			Fetches: map[string]int64{},
		},

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Build metrics
		BuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_builds_total",
				Help: "Total number of builds by outcome",
			},
			[]string{"outcome"},
		),
		BuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playground_build_duration_seconds",
				Help:    "Build duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		// Package host metrics
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_remote_fetches_total",
				Help: "Total number of remote module loads by outcome",
			},
			[]string{"outcome"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playground_remote_fetch_duration_seconds",
				Help:    "Remote module load duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
			},
		),
		StubsSubstituted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_stub_substitutions_total",
				Help: "Remote modules replaced by an empty stub",
			},
		),

		// Session and preview metrics
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_sessions_active",
				Help: "Number of open playground sessions",
			},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_runs_total",
				Help: "Total number of session runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playground_run_duration_seconds",
				Help:    "Session run duration in seconds, build and preview",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		PreviewErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_preview_runtime_errors_total",
				Help: "Errors posted by preview contexts",
			},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_stage_duration_seconds",
				Help:    "Duration of named startup and maintenance stages",
				Buckets: []float64{.001, .01, .1, .5, 1, 2.5, 5, 10},
			},
			[]string{"stage", "status"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// BuildCompleted records a finished build
func (m *Metrics) BuildCompleted(outcome string, d time.Duration) {
	m.BuildsTotal.WithLabelValues(outcome).Inc()
	m.BuildDuration.Observe(d.Seconds())
	m.buildWindow.add(d)

	m.mu.Lock()
	m.snapshot.Builds[outcome]++
	m.mu.Unlock()
}

// FetchCompleted records a remote module load
func (m *Metrics) FetchCompleted(outcome string, d time.Duration) {
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	if outcome != "cache_hit" {
		m.FetchDuration.Observe(d.Seconds())
	}

	m.mu.Lock()
	m.snapshot.Fetches[outcome]++
	m.mu.Unlock()
}

// StubSubstituted records a remote module replaced by a stub
func (m *Metrics) StubSubstituted() {
	m.StubsSubstituted.Inc()

	m.mu.Lock()
	m.snapshot.Stubs++
	m.mu.Unlock()
}

// RunCompleted records a finished session run
func (m *Metrics) RunCompleted(outcome string, d time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// PreviewError records an error posted by a preview context
func (m *Metrics) PreviewError() {
	m.PreviewErrors.Inc()

	m.mu.Lock()
	m.snapshot.PreviewErrors++
	m.mu.Unlock()
}

// SessionsActive sets the number of open sessions
func (m *Metrics) SessionsActive(n int) {
	m.ActiveSessions.Set(float64(n))

	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(n)
	m.mu.Unlock()
}

// RecordStage records the duration of a named stage
func (m *Metrics) RecordStage(stage, status string, duration time.Duration) {
	m.StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
