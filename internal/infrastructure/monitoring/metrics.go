package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accessproxy"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionStarts  *prometheus.CounterVec
	SessionStops   prometheus.Counter

	// Login metrics
	LoginAttempts *prometheus.CounterVec
	LoginDuration prometheus.Histogram

	// Stream metrics
	FramesCaptured   prometheus.Counter
	CaptureFailures  prometheus.Counter
	FrameBytes       prometheus.Histogram
	Interactions     *prometheus.CounterVec
	PageEvents       *prometheus.CounterVec
	NavigationErrors prometheus.Counter

	// Audit metrics
	AuditRecords *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "browser_sessions_active",
				Help:      "Number of live proxy browser sessions",
			},
		),
		SessionStarts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_starts_total",
				Help:      "Session start requests by outcome",
			},
			[]string{"outcome"},
		),
		SessionStops: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_stops_total",
				Help:      "Sessions stopped on request",
			},
		),

		LoginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Login strategy attempts by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		LoginDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "login_chain_duration_seconds",
				Help:      "Wall time spent in the login strategy chain",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
		),

		FramesCaptured: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_captured_total",
				Help:      "Screenshots captured and emitted",
			},
		),
		CaptureFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "capture_failures_total",
				Help:      "Capture loops stopped by a screenshot failure",
			},
		),
		FrameBytes: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "frame_size_bytes",
				Help:      "Encoded JPEG frame size",
				Buckets:   prometheus.ExponentialBuckets(8<<10, 2, 8),
			},
		),
		Interactions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interactions_total",
				Help:      "Relayed interactions by kind and status",
			},
			[]string{"kind", "status"},
		),
		PageEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_events_total",
				Help:      "Page errors and dialogs bridged to clients",
			},
			[]string{"kind"},
		),
		NavigationErrors: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "navigation_errors_total",
				Help:      "Platform navigations that failed or timed out",
			},
		),

		AuditRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_records_total",
				Help:      "Access events recorded by sink and status",
			},
			[]string{"sink", "status"},
		),

		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of active WebSocket connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetSessionsActive sets the number of live sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
}

// RecordSessionStart counts a start-session request by outcome
// ("streaming", "fallback", "failed").
func (m *Metrics) RecordSessionStart(outcome string) {
	m.SessionStarts.WithLabelValues(outcome).Inc()
}

// IncSessionStops counts an explicit stop.
func (m *Metrics) IncSessionStops() {
	m.SessionStops.Inc()
}

// RecordLoginAttempt counts one strategy attempt.
func (m *Metrics) RecordLoginAttempt(strategy, outcome string) {
	m.LoginAttempts.WithLabelValues(strategy, outcome).Inc()
}

// ObserveLoginDuration records a full chain run.
func (m *Metrics) ObserveLoginDuration(d time.Duration) {
	m.LoginDuration.Observe(d.Seconds())
}

// RecordFrame counts a delivered frame of size bytes.
func (m *Metrics) RecordFrame(size int) {
	m.FramesCaptured.Inc()
	m.FrameBytes.Observe(float64(size))
}

// IncCaptureFailures counts a capture loop that stopped on error.
func (m *Metrics) IncCaptureFailures() {
	m.CaptureFailures.Inc()
}

// RecordInteraction counts a relayed interaction.
func (m *Metrics) RecordInteraction(kind, status string) {
	m.Interactions.WithLabelValues(kind, status).Inc()
}

// RecordPageEvent counts a bridged page event.
func (m *Metrics) RecordPageEvent(kind string) {
	m.PageEvents.WithLabelValues(kind).Inc()
}

// IncNavigationErrors counts a failed navigation.
func (m *Metrics) IncNavigationErrors() {
	m.NavigationErrors.Inc()
}

// RecordAudit counts an access event write.
func (m *Metrics) RecordAudit(sink, status string) {
	m.AuditRecords.WithLabelValues(sink, status).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
