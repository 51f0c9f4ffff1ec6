package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the listener. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	connectionsAccepted prometheus.Counter
	connectionsActive   prometheus.Gauge
	connectionDuration  prometheus.Histogram
	acceptErrors        prometheus.Counter
	readErrors          prometheus.Counter
	writeErrors         prometheus.Counter
	handlerErrors       *prometheus.CounterVec
	responsesTotal      *prometheus.CounterVec
	responseSize        *prometheus.HistogramVec
	buildInfo           *prometheus.GaugeVec
	startTime           prometheus.Gauge
	registry            *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pathhint"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.connectionsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted TCP connections",
		},
	)

	m.connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of connections currently being handled",
		},
	)

	m.connectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connection_duration_seconds",
			Help:      "Time from accept to close of a connection",
			Buckets: []float64{
				.0005, .001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
	)

	m.acceptErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_errors_total",
			Help:      "Total number of failed accept calls",
		},
	)

	m.readErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help: "Total number of connections dropped " +
				"before a complete request line",
		},
	)

	m.writeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Total number of failed response writes",
		},
	)

	m.handlerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Total number of failed or panicking route handlers",
		},
		[]string{"route"},
	)

	m.responsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Total number of responses by status and match result",
		},
		[]string{"status", "result"},
	)

	m.responseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_size_bytes",
			Help:      "Response body size in bytes",
			Buckets: prometheus.ExponentialBuckets(
				100, 10, 6,
			),
		},
		[]string{"status"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Start time of the process in unix seconds",
		},
	)

	m.registry.MustRegister(
		m.connectionsAccepted,
		m.connectionsActive,
		m.connectionDuration,
		m.acceptErrors,
		m.readErrors,
		m.writeErrors,
		m.handlerErrors,
		m.responsesTotal,
		m.responseSize,
		m.buildInfo,
		m.startTime,
	)

	m.startTime.SetToCurrentTime()

	return m
}

// ConnectionOpened records an accepted connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
	m.connectionsActive.Inc()
}

// ConnectionClosed records a released connection.
func (m *Metrics) ConnectionClosed(duration time.Duration) {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
	m.connectionDuration.Observe(duration.Seconds())
}

// RecordAcceptError records a failed accept.
func (m *Metrics) RecordAcceptError() {
	if m == nil {
		return
	}
	m.acceptErrors.Inc()
}

// RecordReadError records a connection dropped without a response.
func (m *Metrics) RecordReadError() {
	if m == nil {
		return
	}
	m.readErrors.Inc()
}

// RecordWriteError records a failed response write.
func (m *Metrics) RecordWriteError() {
	if m == nil {
		return
	}
	m.writeErrors.Inc()
}

// RecordHandlerError records a failed handler for a table route. The
// label is always a known route path, never a raw request path.
func (m *Metrics) RecordHandlerError(route string) {
	if m == nil {
		return
	}
	m.handlerErrors.WithLabelValues(route).Inc()
}

// RecordResponse records a response about to be written.
func (m *Metrics) RecordResponse(status int, result string, bodySize int) {
	if m == nil {
		return
	}
	statusStr := strconv.Itoa(status)
	m.responsesTotal.WithLabelValues(statusStr, result).Inc()
	m.responseSize.WithLabelValues(statusStr).Observe(float64(bodySize))
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing this registry together with
// the default one (Go runtime, process and package-level collectors).
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.Gatherers{m.registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}
