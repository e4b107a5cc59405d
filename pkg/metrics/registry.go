// Package metrics provides Prometheus metrics collection for hetty components.
//
// All metrics are optional - components built without a metrics collector use
// no-op implementations with zero overhead.
//
// The registry is created explicitly and handed to whoever needs it, so that
// several listener services (or tests) can live in one process without
// sharing collectors:
//
//	reg := metrics.NewRegistry()
//	listenerMetrics := prometheus.NewListenerMetrics(reg)
//	server := metrics.NewServer(metrics.ServerConfig{Port: 9090}, reg, log)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry creates a Prometheus registry with the Go runtime and process
// collectors registered.
//
// Goroutine counts exported by the Go collector are the quickest way to
// confirm that a stopped listener released its pools.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
