package prometheus

import (
	"github.com/marmos91/hetty/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// listenerMetrics is the Prometheus implementation of metrics.ListenerMetrics.
type listenerMetrics struct {
	lifecycle              *prometheus.CounterVec
	acceptErrors           prometheus.Counter
	activeConnections      prometheus.Gauge
	connectionsAccepted    prometheus.Counter
	connectionsClosed      prometheus.Counter
	connectionsForceClosed prometheus.Counter
}

// NewListenerMetrics creates a Prometheus-backed ListenerMetrics registered
// on reg.
//
// Returns a no-op implementation if reg is nil.
func NewListenerMetrics(reg prometheus.Registerer) metrics.ListenerMetrics {
	if reg == nil {
		return metrics.NewNoopListenerMetrics()
	}

	return &listenerMetrics{
		lifecycle: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hetty_listener_lifecycle_events_total",
				Help: "Listener lifecycle transitions by event (start, stop, bind_failure)",
			},
			[]string{"event"},
		),
		acceptErrors: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hetty_listener_accept_errors_total",
				Help: "Total number of non-fatal Accept errors",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "hetty_listener_active_connections",
				Help: "Current number of connections being served by the worker pool",
			},
		),
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hetty_listener_connections_accepted_total",
				Help: "Total number of connections accepted",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hetty_listener_connections_closed_total",
				Help: "Total number of connections closed",
			},
		),
		connectionsForceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hetty_listener_connections_force_closed_total",
				Help: "Total number of connections force-closed during shutdown timeout",
			},
		),
	}
}

func (m *listenerMetrics) RecordStart() {
	m.lifecycle.WithLabelValues("start").Inc()
}

func (m *listenerMetrics) RecordStop() {
	m.lifecycle.WithLabelValues("stop").Inc()
}

func (m *listenerMetrics) RecordBindFailure() {
	m.lifecycle.WithLabelValues("bind_failure").Inc()
}

func (m *listenerMetrics) RecordAcceptError() {
	m.acceptErrors.Inc()
}

func (m *listenerMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *listenerMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *listenerMetrics) RecordConnectionForceClosed() {
	m.connectionsForceClosed.Inc()
}

func (m *listenerMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}
