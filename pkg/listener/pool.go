package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/internal/ratelimiter"
	"github.com/marmos91/hetty/pkg/metrics"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// acceptorPool runs a fixed number of goroutines accepting connections from
// one listener and handing them off to the worker pool.
//
// The pool owns the listener: shutdown closes it, which unblocks every
// goroutine parked in Accept.
type acceptorPool struct {
	size    int
	ln      net.Listener
	limiter *ratelimiter.RateLimiter
	handoff func(ctx context.Context, conn net.Conn)
	log     *logger.Logger
	metrics metrics.ListenerMetrics

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Int32
}

func newAcceptorPool(size int, ln net.Listener, limiter *ratelimiter.RateLimiter,
	handoff func(ctx context.Context, conn net.Conn), log *logger.Logger, m metrics.ListenerMetrics) *acceptorPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &acceptorPool{
		size:    size,
		ln:      ln,
		limiter: limiter,
		handoff: handoff,
		log:     log,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *acceptorPool) start() {
	for i := range p.size {
		p.wg.Add(1)
		p.running.Add(1)
		go p.run(i)
	}
}

func (p *acceptorPool) run(id int) {
	defer func() {
		p.running.Add(-1)
		p.wg.Done()
	}()

	var delay time.Duration
	for {
		if err := p.limiter.Wait(p.ctx); err != nil {
			return
		}

		conn, err := p.ln.Accept()
		if err != nil {
			if p.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}

			// Resource exhaustion (EMFILE, ENFILE) must not spin the acceptor
			p.metrics.RecordAcceptError()
			delay = nextAcceptDelay(delay)
			p.log.Warn("Acceptor %d: accept error: %v; retrying in %v", id, err, delay)

			select {
			case <-time.After(delay):
			case <-p.ctx.Done():
				return
			}
			continue
		}

		delay = 0
		p.handoff(p.ctx, conn)
	}
}

func nextAcceptDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}
	return min(delay*2, maxAcceptDelay)
}

// shutdown closes the listener and waits for every acceptor to return.
// Every point where an acceptor blocks is released by the closed listener or
// the cancelled context, so the wait is unbounded.
func (p *acceptorPool) shutdown() error {
	p.cancel()

	var errs error
	if err := p.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = fmt.Errorf("close listener: %w", err)
	}

	p.wg.Wait()
	return errs
}

// workerPool runs a fixed number of goroutines that serve connections taken
// from a bounded queue. Each connection is served to completion by one
// worker, so size bounds the number of connections served concurrently.
type workerPool struct {
	size     int
	queue    chan net.Conn
	dispatch func(ctx context.Context, conn net.Conn)
	log      *logger.Logger
	metrics  metrics.ListenerMetrics

	// ctx is handed to every handler; shutdown cancels it
	ctx    context.Context
	cancel context.CancelFunc

	wg      sync.WaitGroup
	running atomic.Int32
	active  atomic.Int32

	// conns tracks connections being served, for forced closure
	conns sync.Map
}

func newWorkerPool(size, queueSize int, dispatch func(ctx context.Context, conn net.Conn),
	log *logger.Logger, m metrics.ListenerMetrics) *workerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &workerPool{
		size:     size,
		queue:    make(chan net.Conn, queueSize),
		dispatch: dispatch,
		log:      log,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (p *workerPool) start() {
	for range p.size {
		p.wg.Add(1)
		p.running.Add(1)
		go p.run()
	}
}

func (p *workerPool) run() {
	defer func() {
		p.running.Add(-1)
		p.wg.Done()
	}()

	for {
		select {
		case conn := <-p.queue:
			p.serve(conn)
		case <-p.ctx.Done():
			return
		}
	}
}

// submit queues an accepted connection. It blocks while the queue is full
// and gives up when ctx is cancelled.
func (p *workerPool) submit(ctx context.Context, conn net.Conn) bool {
	select {
	case p.queue <- conn:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *workerPool) serve(conn net.Conn) {
	if p.ctx.Err() != nil {
		p.discard(conn)
		return
	}

	p.conns.Store(conn, struct{}{})
	p.metrics.SetActiveConnections(p.active.Add(1))

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Connection handler for %s panicked: %v", conn.RemoteAddr(), r)
		}
		_ = conn.Close()
		p.conns.Delete(conn)
		p.metrics.SetActiveConnections(p.active.Add(-1))
		p.metrics.RecordConnectionClosed()
	}()

	p.dispatch(p.ctx, conn)
}

func (p *workerPool) discard(conn net.Conn) {
	_ = conn.Close()
	p.metrics.RecordConnectionClosed()
}

// shutdown cancels the handler context and waits for the workers to return,
// up to timeout or until ctx is done. Connections still being served after
// that are force-closed and the workers get one more timeout, not bounded by
// ctx, to return. Workers alive after both waits are reported as an error.
func (p *workerPool) shutdown(ctx context.Context, timeout time.Duration) error {
	p.cancel()
	defer p.drain()

	if !waitGroup(ctx, &p.wg, timeout) {
		closed := p.forceClose()
		if closed > 0 {
			p.log.Warn("Shutdown grace period over: force-closed %d connection(s)", closed)
		}

		if !waitGroup(context.Background(), &p.wg, timeout) {
			return fmt.Errorf("%d worker(s) still running %v after force-closing %d connection(s)",
				p.running.Load(), timeout, closed)
		}
	}
	return nil
}

// forceClose closes every connection still being served.
func (p *workerPool) forceClose() int {
	closed := 0
	p.conns.Range(func(key, _ any) bool {
		conn := key.(net.Conn)
		if err := conn.Close(); err != nil {
			p.log.Debug("Error force-closing connection to %s: %v", conn.RemoteAddr(), err)
		} else {
			closed++
			p.metrics.RecordConnectionForceClosed()
		}
		return true
	})
	return closed
}

// drain closes connections that were queued but never picked up.
func (p *workerPool) drain() {
	for {
		select {
		case conn := <-p.queue:
			p.discard(conn)
		default:
			return
		}
	}
}

// waitGroup waits for wg up to timeout or until ctx is done. It reports
// whether wg finished.
func waitGroup(ctx context.Context, wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
