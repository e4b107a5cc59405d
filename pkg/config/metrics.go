package config

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/pkg/metrics"
	promMetrics "github.com/marmos91/hetty/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Registry holds every collector (nil if disabled)
	Registry *prometheus.Registry

	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// ListenerMetrics is the collector for the listener (never nil, uses noop if disabled)
	ListenerMetrics metrics.ListenerMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Creates a Prometheus registry with Go and process collectors
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics for the listener
//
// If metrics are disabled:
//   - Returns nil server and registry
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config, log *logger.Logger) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			ListenerMetrics: metrics.NewNoopListenerMetrics(),
		}
	}

	reg := metrics.NewRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Address: cfg.Metrics.Address,
		Port:    cfg.Metrics.Port,
	}, reg, log)

	return &MetricsResult{
		Registry:        reg,
		Server:          server,
		ListenerMetrics: promMetrics.NewListenerMetrics(reg),
	}
}
