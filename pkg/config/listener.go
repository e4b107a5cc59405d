package config

import (
	"fmt"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/pkg/listener"
	"github.com/marmos91/hetty/pkg/metrics"
)

// CreateListener builds an Idle listener service from the configuration.
//
// The handler factory is created from cfg.Handler; the listener itself is
// built from cfg.Listener through the builder, so the same validation
// applies as for embedded use.
//
// Parameters:
//   - cfg: The complete hetty configuration
//   - log: Logger for the listener and its handler
//   - m: Optional listener metrics collector (nil = no metrics)
func CreateListener(cfg *Config, log *logger.Logger, m metrics.ListenerMetrics) (*listener.Service, error) {
	factory, err := CreateHandlerFactory(&cfg.Handler, log.Named("handler"))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s handler: %w", cfg.Handler.Type, err)
	}

	svc, err := listener.NewBuilderFrom(cfg.Listener).
		Handler(factory).
		Logger(log.Named("listener")).
		Metrics(m).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	return svc, nil
}
