// Package listener runs a TCP listening service inside a host application.
//
// A Service binds one listening socket and owns two goroutine pools:
//
//   - the acceptor pool: AcceptorThreads goroutines blocked in Accept on the
//     shared listener
//   - the worker pool: WorkerThreads goroutines that take accepted
//     connections from a queue and hand each one to the injected
//     ConnectionHandlerFactory
//
// Lifecycle:
//
//	Idle --Start--> Starting --bind ok--> Running --Stop--> Stopping --> Idle
//	                    |
//	                    +--bind failed--> Idle (pools torn down, *BindError)
//
// Start on a Running service first performs a full stop, so a Service never
// holds more than one socket and one pair of pools. Stop is a no-op on an
// Idle service and always ends in Idle; teardown problems are logged as a
// *TeardownWarning and never returned.
//
// Lifecycle transitions are serialized by the Service itself, so Start and
// Stop may be called from different goroutines. IsRunning, BoundPort and
// Stats never block.
//
// Example:
//
//	svc, err := listener.NewBuilder().
//	    BindAddress("127.0.0.1").
//	    BindPort(18080).
//	    AcceptorThreads(1).
//	    WorkerThreads(2).
//	    Handler(listener.ServeFunc(func(ctx context.Context, conn net.Conn) {
//	        _, _ = io.Copy(conn, conn)
//	    })).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	if err := svc.Start(ctx); err != nil {
//	    return err
//	}
//	defer svc.Stop(context.Background())
package listener
