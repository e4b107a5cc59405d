package listener

import (
	"time"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/pkg/metrics"
)

// Builder assembles a ServiceConfig, and optionally a Service, with chained
// setters. Fields that are never set keep the values of DefaultConfig.
//
// Setters do not validate; BuildConfig and Build do.
type Builder struct {
	config  ServiceConfig
	factory ConnectionHandlerFactory
	log     *logger.Logger
	metrics metrics.ListenerMetrics
}

// NewBuilder returns a Builder seeded with DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// NewBuilderFrom returns a Builder seeded with cfg, for callers that load a
// ServiceConfig from a file and only override a few fields.
func NewBuilderFrom(cfg ServiceConfig) *Builder {
	return &Builder{config: cfg}
}

// NewDefault builds a Service for factory with every setting at its
// default, bound to 0.0.0.0:8080 once started.
func NewDefault(factory ConnectionHandlerFactory) (*Service, error) {
	return NewBuilder().Handler(factory).Build()
}

func (b *Builder) BindAddress(address string) *Builder {
	b.config.BindAddress = address
	return b
}

func (b *Builder) BindPort(port int) *Builder {
	b.config.BindPort = port
	return b
}

func (b *Builder) AcceptorThreads(n int) *Builder {
	b.config.AcceptorThreads = n
	return b
}

func (b *Builder) WorkerThreads(n int) *Builder {
	b.config.WorkerThreads = n
	return b
}

func (b *Builder) Encoding(name string) *Builder {
	b.config.Encoding = name
	return b
}

func (b *Builder) ReceiveBufferSize(bytes int) *Builder {
	b.config.ReceiveBufferSize = bytes
	return b
}

func (b *Builder) SendBufferSize(bytes int) *Builder {
	b.config.SendBufferSize = bytes
	return b
}

func (b *Builder) KeepAlive(enabled bool) *Builder {
	b.config.KeepAlive = enabled
	return b
}

func (b *Builder) ReuseAddress(enabled bool) *Builder {
	b.config.ReuseAddress = enabled
	return b
}

func (b *Builder) NoDelay(enabled bool) *Builder {
	b.config.NoDelay = enabled
	return b
}

func (b *Builder) Backlog(n int) *Builder {
	b.config.Backlog = n
	return b
}

func (b *Builder) ShutdownTimeout(d time.Duration) *Builder {
	b.config.ShutdownTimeout = d
	return b
}

// AcceptRate limits accepted connections to perSecond with the given burst.
func (b *Builder) AcceptRate(perSecond, burst int) *Builder {
	b.config.AcceptRate = perSecond
	b.config.AcceptBurst = burst
	return b
}

// Handler sets the factory invoked once per accepted connection.
func (b *Builder) Handler(factory ConnectionHandlerFactory) *Builder {
	b.factory = factory
	return b
}

// Logger sets the logger used by the Service. Defaults to a no-op logger.
func (b *Builder) Logger(log *logger.Logger) *Builder {
	b.log = log
	return b
}

// Metrics sets the metrics collector. Defaults to no-op metrics.
func (b *Builder) Metrics(m metrics.ListenerMetrics) *Builder {
	b.metrics = m
	return b
}

// BuildConfig validates and returns the accumulated ServiceConfig.
func (b *Builder) BuildConfig() (ServiceConfig, error) {
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}

// Build validates the configuration and returns an Idle Service.
func (b *Builder) Build() (*Service, error) {
	cfg, err := b.BuildConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, b.factory, b.log, b.metrics)
}
