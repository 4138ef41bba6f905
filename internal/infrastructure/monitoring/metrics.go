package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Terminal metrics
	TerminalsActive  prometheus.Gauge
	TerminalsSpawned prometheus.Counter
	TerminalsClosed  prometheus.Counter
	TerminalWrites   prometheus.Counter

	// Watcher metrics
	WatchersActive prometheus.Gauge

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a collector bound to a custom registry,
// used by tests to avoid duplicate registration.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		TerminalsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "backend_terminals_active",
			Help: "Number of live pseudo-terminal sessions",
		}),
		TerminalsSpawned: factory.NewCounter(prometheus.CounterOpts{
			Name: "backend_terminals_spawned_total",
			Help: "Total terminal sessions spawned",
		}),
		TerminalsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "backend_terminals_closed_total",
			Help: "Total terminal sessions closed",
		}),
		TerminalWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "backend_terminal_writes_total",
			Help: "Total write commands delivered to terminals",
		}),

		WatchersActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "backend_watchers_active",
			Help: "Number of active repository watchers",
		}),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_events_published_total",
				Help: "Events accepted onto the push channel",
			},
			[]string{"type"},
		),
		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_events_dropped_total",
				Help: "Events discarded due to backpressure",
			},
			[]string{"type"},
		),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "backend_ws_connections",
			Help: "Open WebSocket connections",
		}),

		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "backend_uptime_seconds",
			Help: "Process uptime in seconds",
		}),
	}
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// EventPublished implements events.Observer
func (m *Metrics) EventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// EventDropped implements events.Observer
func (m *Metrics) EventDropped(eventType string) {
	m.EventsDropped.WithLabelValues(eventType).Inc()
}
