package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marmos91/hetty/pkg/listener"
)

const (
	defaultServerShutdownTimeout = 30 * time.Second
	defaultMetricsPort           = 9090
	defaultHandlerType           = "echo"
)

// setViperDefaults registers listener defaults with viper.
//
// Booleans such as reuse_address default to true, which ApplyDefaults cannot
// tell apart from an explicit false. Registering every key also lets
// AutomaticEnv resolve HETTY_LISTENER_* variables that no file mentions.
func setViperDefaults(v *viper.Viper) {
	d := listener.DefaultConfig()

	v.SetDefault("listener.bind_address", d.BindAddress)
	v.SetDefault("listener.bind_port", d.BindPort)
	v.SetDefault("listener.acceptor_threads", d.AcceptorThreads)
	v.SetDefault("listener.worker_threads", d.WorkerThreads)
	v.SetDefault("listener.receive_buffer_size", d.ReceiveBufferSize)
	v.SetDefault("listener.send_buffer_size", d.SendBufferSize)
	v.SetDefault("listener.keep_alive", d.KeepAlive)
	v.SetDefault("listener.reuse_address", d.ReuseAddress)
	v.SetDefault("listener.no_delay", d.NoDelay)
	v.SetDefault("listener.backlog", d.Backlog)
	v.SetDefault("listener.encoding", d.Encoding)
	v.SetDefault("listener.shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("listener.accept_rate", d.AcceptRate)
	v.SetDefault("listener.accept_burst", d.AcceptBurst)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", defaultMetricsPort)
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
//   - Booleans are defaulted through viper, see setViperDefaults
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyListenerDefaults(&cfg.Listener)
	applyHandlerDefaults(&cfg.Handler)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultServerShutdownTimeout
	}
}

// applyListenerDefaults fills zero numeric and string fields. BindPort is
// left alone: 0 is a valid request for an ephemeral port.
func applyListenerDefaults(cfg *listener.ServiceConfig) {
	d := listener.DefaultConfig()

	if cfg.BindAddress == "" {
		cfg.BindAddress = d.BindAddress
	}
	if cfg.AcceptorThreads == 0 {
		cfg.AcceptorThreads = d.AcceptorThreads
	}
	if cfg.WorkerThreads == 0 {
		cfg.WorkerThreads = d.WorkerThreads
	}
	if cfg.ReceiveBufferSize == 0 {
		cfg.ReceiveBufferSize = d.ReceiveBufferSize
	}
	if cfg.SendBufferSize == 0 {
		cfg.SendBufferSize = d.SendBufferSize
	}
	if cfg.Backlog == 0 {
		cfg.Backlog = d.Backlog
	}
	if cfg.Encoding == "" {
		cfg.Encoding = d.Encoding
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = d.ShutdownTimeout
	}
}

// applyHandlerDefaults sets handler defaults.
func applyHandlerDefaults(cfg *HandlerConfig) {
	if cfg.Type == "" {
		cfg.Type = defaultHandlerType
	}

	// Initialize maps if nil
	if cfg.Echo == nil {
		cfg.Echo = make(map[string]any)
	}
	if cfg.Discard == nil {
		cfg.Discard = make(map[string]any)
	}

	// Apply defaults for all handler types (for config file generation)
	if _, ok := cfg.Echo["banner"]; !ok {
		cfg.Echo["banner"] = ""
	}
	if _, ok := cfg.Echo["idle_timeout"]; !ok {
		cfg.Echo["idle_timeout"] = "5m"
	}
	if _, ok := cfg.Discard["idle_timeout"]; !ok {
		cfg.Discard["idle_timeout"] = "5m"
	}
}

// applyMetricsDefaults sets metrics endpoint defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultMetricsPort
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Listener: listener.DefaultConfig(),
		Handler: HandlerConfig{
			Echo:    make(map[string]any),
			Discard: make(map[string]any),
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
