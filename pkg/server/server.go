package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/marmos91/hetty/internal/logger"
)

// DefaultShutdownTimeout bounds stopping the listener and metrics endpoint
// when Config.ShutdownTimeout is zero.
const DefaultShutdownTimeout = 30 * time.Second

// ErrAlreadyServed is returned by Serve on every call after the first.
var ErrAlreadyServed = errors.New("server: Serve has already been called")

// Listener is the lifecycle of a listener service, as implemented by
// *listener.Service.
type Listener interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	IsRunning() bool
	Addr() net.Addr
}

// MetricsServer is an HTTP endpoint run next to the listener, as implemented
// by *metrics.Server. Start blocks until ctx is cancelled.
type MetricsServer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Config configures a HettyServer.
type Config struct {
	// ShutdownTimeout bounds stopping the listener and metrics endpoint
	ShutdownTimeout time.Duration

	// Metrics is served alongside the listener when non-nil
	Metrics MetricsServer
}

// HettyServer supervises one listener service and an optional metrics
// endpoint for a host process.
//
// Lifecycle:
//  1. Creation: New() with a built, Idle listener
//  2. Startup: Serve() starts the listener and metrics endpoint
//  3. Reload: Reload() restarts the listener through Start
//  4. Shutdown: Context cancellation stops both and Serve returns
//
// Thread safety:
// HettyServer is safe for concurrent use. Serve() may only be called once;
// Reload() may be called from any goroutine, e.g. a SIGHUP handler.
//
// Example usage:
//
//	srv := server.New(svc, server.Config{Metrics: metricsServer}, log)
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Error("%v", err)
//	}
type HettyServer struct {
	listener Listener
	config   Config
	log      *logger.Logger

	// reload is buffered so Reload never blocks and coalesces bursts
	reload chan struct{}

	mu     sync.Mutex
	served bool
}

// New creates a HettyServer for l. A nil log discards output.
//
// Panics if l is nil (indicates programmer error).
func New(l Listener, config Config, log *logger.Logger) *HettyServer {
	if l == nil {
		panic("listener cannot be nil")
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	return &HettyServer{
		listener: l,
		config:   config,
		log:      log,
		reload:   make(chan struct{}, 1),
	}
}

// Serve starts the listener and the metrics endpoint, then blocks until the
// context is cancelled or a component fails.
//
// Error handling:
//   - If the listener fails to start: stops the metrics endpoint and returns the error
//   - If the metrics endpoint fails: stops the listener and returns the error
//   - If a reload fails to rebind: the listener is Idle; the error is returned
//   - If context is cancelled: stops everything and returns context.Canceled
//
// Calling Serve more than once returns ErrAlreadyServed.
func (s *HettyServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return ErrAlreadyServed
	}
	s.served = true
	s.mu.Unlock()

	startTime := time.Now()

	// metricsCtx outlives ctx so the endpoint can be stopped after the listener
	metricsCtx, stopMetrics := context.WithCancel(context.WithoutCancel(ctx))
	defer stopMetrics()

	metricsErr := make(chan error, 1)
	var wg sync.WaitGroup
	if s.config.Metrics != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.config.Metrics.Start(metricsCtx); err != nil {
				metricsErr <- err
			}
		}()
	}

	// waitMetrics stops the metrics endpoint and waits for its goroutine
	waitMetrics := func() {
		stopMetrics()
		wg.Wait()
	}

	if err := s.listener.Start(ctx); err != nil {
		waitMetrics()
		return fmt.Errorf("listener failed to start: %w", err)
	}
	s.log.Info("Server started in %v, listening on %s", time.Since(startTime), s.listener.Addr())

	var serveErr error
loop:
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Shutdown signal received (reason: %v)", ctx.Err())
			serveErr = ctx.Err()
			break loop

		case <-s.reload:
			if ctx.Err() != nil {
				serveErr = ctx.Err()
				break loop
			}
			s.log.Info("Reload requested, restarting listener")
			if err := s.listener.Start(ctx); err != nil {
				s.log.Error("Listener failed to restart: %v", err)
				serveErr = fmt.Errorf("listener failed to restart: %w", err)
				break loop
			}
			s.log.Info("Listener restarted on %s", s.listener.Addr())

		case err := <-metricsErr:
			s.log.Error("Metrics endpoint failed: %v - initiating shutdown", err)
			serveErr = err
			break loop
		}
	}

	s.shutdown()
	waitMetrics()

	s.log.Info("Server stopped gracefully")
	return serveErr
}

// shutdown stops the listener within the configured timeout.
func (s *HettyServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if s.listener.IsRunning() {
		s.log.Debug("Stopping listener on %s", s.listener.Addr())
		s.listener.Stop(ctx)
	}

	if s.config.Metrics != nil {
		if err := s.config.Metrics.Stop(ctx); err != nil {
			s.log.Error("Error stopping metrics endpoint: %v", err)
		}
	}
}

// Reload asks Serve to restart the listener. Requests made while one is
// pending are coalesced. Reload never blocks.
func (s *HettyServer) Reload() {
	select {
	case s.reload <- struct{}{}:
	default:
	}
}

// Listener returns the supervised listener.
func (s *HettyServer) Listener() Listener {
	return s.listener
}
