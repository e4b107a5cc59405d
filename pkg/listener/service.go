package listener

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/internal/ratelimiter"
	"github.com/marmos91/hetty/pkg/metrics"
)

// State is the lifecycle state of a Service.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// Stats is a point-in-time snapshot of a Service's resources.
type Stats struct {
	State             State
	Acceptors         int
	Workers           int
	ActiveConnections int
	QueuedConnections int
}

// Service binds one TCP listener and dispatches accepted connections to a
// ConnectionHandlerFactory through an acceptor pool and a worker pool.
//
// Thread safety:
// Start and Stop are serialized by an internal mutex; concurrent calls
// never double-bind or leak pools. Query methods are lock-free.
type Service struct {
	// config is the service's private copy, never mutated after New
	config  ServiceConfig
	factory ConnectionHandlerFactory
	charset encoding.Encoding
	log     *logger.Logger
	metrics metrics.ListenerMetrics

	// mu serializes lifecycle transitions
	mu    sync.Mutex
	state atomic.Int32

	// Owned while Running, nil otherwise. Guarded by mu.
	acceptors *acceptorPool
	workers   *workerPool

	// bound is the listener's actual address while Running
	bound atomic.Pointer[net.TCPAddr]

	// pools is the current pool pair, for lock-free Stats
	pools atomic.Pointer[poolPair]
}

type poolPair struct {
	acceptors *acceptorPool
	workers   *workerPool
}

// New creates an Idle Service from a ServiceConfig.
//
// The configuration is validated and copied. log and m may be nil, in which
// case logging and metrics are disabled.
func New(config ServiceConfig, factory ConnectionHandlerFactory, log *logger.Logger, m metrics.ListenerMetrics) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: connection handler factory is required", ErrInvalidConfiguration)
	}

	charset, err := lookupCharset(config.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding: %v", ErrInvalidConfiguration, err)
	}

	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = metrics.NewNoopListenerMetrics()
	}

	return &Service{
		config:  config,
		factory: factory,
		charset: charset,
		log:     log,
		metrics: m,
	}, nil
}

// Start binds the listener and starts both pools. It returns once the bind
// has succeeded or failed.
//
// If the service is already Running it is fully stopped first, so calling
// Start twice leaves exactly one listener bound to the configuration.
//
// On failure the returned error matches ErrBindFailed (as a *BindError)
// and the service is Idle with no pool goroutines left.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateRunning {
		s.restartLocked(ctx)
	}
	return s.startLocked(ctx)
}

// restartLocked is the stop half of stop-then-start: a Running service is
// torn down completely before a new listener is bound.
func (s *Service) restartLocked(ctx context.Context) {
	s.log.Info("Listener already running on %s, stopping it before restart", s.boundAddress())
	s.stopLocked(ctx)
}

func (s *Service) startLocked(ctx context.Context) error {
	cfg := s.config
	s.log.Info("Starting listener on %s ...", cfg.Address())
	s.state.Store(int32(StateStarting))

	workers := newWorkerPool(cfg.WorkerThreads, cfg.Backlog, s.dispatch, s.log, s.metrics)
	workers.start()

	ln, err := listen(ctx, cfg)
	if err != nil {
		if werr := workers.shutdown(context.Background(), cfg.ShutdownTimeout); werr != nil {
			s.log.Warn("%v", &TeardownWarning{Address: cfg.Address(), Err: werr})
		}
		s.state.Store(int32(StateIdle))
		s.metrics.RecordBindFailure()

		bindErr := &BindError{Address: cfg.BindAddress, Port: cfg.BindPort, Err: err}
		s.log.Error("%v", bindErr)
		return bindErr
	}

	limiter := ratelimiter.New(cfg.AcceptRate, cfg.AcceptBurst)
	acceptors := newAcceptorPool(cfg.AcceptorThreads, ln, limiter, s.handoff(workers), s.log, s.metrics)
	acceptors.start()

	s.acceptors = acceptors
	s.workers = workers
	s.pools.Store(&poolPair{acceptors: acceptors, workers: workers})
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.bound.Store(addr)
	}
	s.state.Store(int32(StateRunning))
	s.metrics.RecordStart()

	s.log.Info("Started listener on %s (acceptors=%d workers=%d backlog=%d encoding=%s)",
		ln.Addr(), cfg.AcceptorThreads, cfg.WorkerThreads, cfg.Backlog, cfg.Encoding)
	if cfg.AcceptRate > 0 {
		s.log.Debug("Accept rate limited to %d/s", cfg.AcceptRate)
	}
	return nil
}

// Stop closes the listener and shuts down the worker and acceptor pools,
// waiting for their goroutines. It is a no-op on an Idle service.
//
// Handlers get ServiceConfig.ShutdownTimeout to return after their context
// is cancelled; a done ctx cuts that grace period short and their
// connections are force-closed. Either way Stop waits for the pool
// goroutines, bounded only by ShutdownTimeout after the force-close.
// Workers still alive then are logged as a *TeardownWarning; the service
// always ends Idle.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(ctx)
}

func (s *Service) stopLocked(ctx context.Context) {
	if s.State() != StateRunning {
		s.log.Debug("Listener on %s is not running, nothing to stop", s.config.Address())
		return
	}

	addr := s.boundAddress()
	s.log.Info("Stopping listener on %s ...", addr)
	s.state.Store(int32(StateStopping))

	teardown := multierr.Combine(
		s.acceptors.shutdown(),
		s.workers.shutdown(ctx, s.config.ShutdownTimeout),
	)

	s.acceptors = nil
	s.workers = nil
	s.pools.Store(nil)
	s.bound.Store(nil)
	s.state.Store(int32(StateIdle))
	s.metrics.RecordStop()

	if teardown != nil {
		s.log.Warn("%v", &TeardownWarning{Address: addr, Err: teardown})
	}
	s.log.Info("Stopped listener on %s", addr)
}

// handoff configures an accepted connection and queues it for the workers.
func (s *Service) handoff(workers *workerPool) func(ctx context.Context, conn net.Conn) {
	return func(ctx context.Context, conn net.Conn) {
		s.metrics.RecordConnectionAccepted()

		if err := configureConn(conn, s.config); err != nil {
			s.log.Debug("Socket options on connection from %s: %v", conn.RemoteAddr(), err)
		}

		if !workers.submit(ctx, conn) {
			workers.discard(conn)
		}
	}
}

// dispatch runs on a worker goroutine: it builds the handler chain for conn
// through the factory and serves it.
func (s *Service) dispatch(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()
	s.log.Debug("Connection %s accepted from %s", id, conn.RemoteAddr())

	handler := s.factory.NewConnectionHandler(conn)
	if handler == nil {
		s.log.Warn("Handler factory returned no handler for %s, closing connection", conn.RemoteAddr())
		return
	}

	handler.Serve(withConnection(ctx, id, s.charset))
	s.log.Debug("Connection %s from %s closed", id, conn.RemoteAddr())
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// IsRunning reports whether the service is Running.
func (s *Service) IsRunning() bool {
	return s.State() == StateRunning
}

// BoundPort returns the port the listener is bound to while Running, which
// differs from the configured port when 0 (ephemeral) was requested. When
// not Running it returns the configured port.
func (s *Service) BoundPort() int {
	if addr := s.bound.Load(); addr != nil {
		return addr.Port
	}
	return s.config.BindPort
}

// Addr returns the listener address while Running, nil otherwise.
func (s *Service) Addr() net.Addr {
	if addr := s.bound.Load(); addr != nil {
		return addr
	}
	return nil
}

func (s *Service) boundAddress() string {
	if addr := s.bound.Load(); addr != nil {
		return addr.String()
	}
	return s.config.Address()
}

// Config returns a copy of the service configuration.
func (s *Service) Config() ServiceConfig {
	return s.config
}

// Stats returns a snapshot of pool and connection counts.
func (s *Service) Stats() Stats {
	stats := Stats{State: s.State()}
	if p := s.pools.Load(); p != nil {
		stats.Acceptors = int(p.acceptors.running.Load())
		stats.Workers = int(p.workers.running.Load())
		stats.ActiveConnections = int(p.workers.active.Load())
		stats.QueuedConnections = len(p.workers.queue)
	}
	return stats
}
