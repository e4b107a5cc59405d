package listener

import (
	"context"
	"net"
	"syscall"

	"go.uber.org/multierr"
)

// listen binds the listening socket with the listener-side options of cfg.
func listen(ctx context.Context, cfg ServiceConfig) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			return controlListener(c, cfg)
		},
	}
	// Keep-alive on accepted connections is applied by configureConn;
	// a negative value stops the runtime from enabling it on its own.
	if !cfg.KeepAlive {
		lc.KeepAlive = -1
	}

	ln, err := lc.Listen(ctx, "tcp", cfg.Address())
	if err != nil {
		return nil, err
	}

	if err := setBacklog(ln, cfg.Backlog); err != nil {
		_ = ln.Close()
		return nil, err
	}

	return ln, nil
}

// configureConn applies the connection-side options of cfg to an accepted
// connection.
func configureConn(conn net.Conn, cfg ServiceConfig) error {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	return multierr.Combine(
		tcp.SetKeepAlive(cfg.KeepAlive),
		tcp.SetNoDelay(cfg.NoDelay),
		tcp.SetReadBuffer(cfg.ReceiveBufferSize),
		tcp.SetWriteBuffer(cfg.SendBufferSize),
	)
}
