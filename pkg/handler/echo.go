// Package handler provides ready-made ConnectionHandlerFactory
// implementations for the hetty listener: an echo service and a sink that
// discards everything it reads.
package handler

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/pkg/listener"
)

const defaultBufferSize = 4096

// EchoConfig configures the echo handler.
type EchoConfig struct {
	// Banner is written once when a connection is accepted, encoded in the
	// listener's charset and followed by CRLF. Empty disables it.
	Banner string `mapstructure:"banner"`

	// BufferSize is the size of the read buffer per connection, in bytes.
	BufferSize int `mapstructure:"buffer_size" validate:"omitempty,gt=0"`

	// IdleTimeout closes connections that send nothing for this long.
	// 0 disables it.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
}

// Echo writes back every byte it reads.
type Echo struct {
	config EchoConfig
	log    *logger.Logger
}

// NewEcho creates an echo handler factory.
func NewEcho(config EchoConfig, log *logger.Logger) *Echo {
	if config.BufferSize == 0 {
		config.BufferSize = defaultBufferSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Echo{config: config, log: log}
}

func (e *Echo) NewConnectionHandler(conn net.Conn) listener.ConnectionHandler {
	return &echoConn{Echo: e, conn: conn}
}

type echoConn struct {
	*Echo
	conn net.Conn
}

func (c *echoConn) Serve(ctx context.Context) {
	id := listener.ConnectionID(ctx)

	// Stop unblocks a pending Read by closing the connection
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	if c.config.Banner != "" {
		banner, err := listener.Charset(ctx).NewEncoder().String(c.config.Banner + "\r\n")
		if err != nil {
			c.log.Warn("Echo %s: banner cannot be encoded: %v", id, err)
			return
		}
		if _, err := io.WriteString(c.conn, banner); err != nil {
			c.log.Debug("Echo %s: write banner: %v", id, err)
			return
		}
	}

	n, err := copyWithIdleTimeout(c.conn, c.conn, c.config.BufferSize, c.config.IdleTimeout)
	logCopyResult(ctx, c.log, "Echo", id, n, err)
}

// copyWithIdleTimeout copies src to dst until EOF, error, or idleTimeout
// passes without data. A nil dst drops the data.
func copyWithIdleTimeout(dst io.Writer, src net.Conn, bufferSize int, idleTimeout time.Duration) (int64, error) {
	buf := make([]byte, bufferSize)
	var total int64
	for {
		if idleTimeout > 0 {
			if err := src.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
				return total, err
			}
		}

		n, err := src.Read(buf)
		if n > 0 {
			total += int64(n)
			if dst != nil {
				if _, werr := dst.Write(buf[:n]); werr != nil {
					return total, werr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
}

func logCopyResult(ctx context.Context, log *logger.Logger, name, id string, n int64, err error) {
	switch {
	case err == nil:
		log.Debug("%s %s: peer closed after %d bytes", name, id, n)
	case ctx.Err() != nil:
		log.Debug("%s %s: closed by shutdown after %d bytes", name, id, n)
	case errors.Is(err, os.ErrDeadlineExceeded):
		log.Debug("%s %s: idle timeout after %d bytes", name, id, n)
	default:
		log.Debug("%s %s: connection error after %d bytes: %v", name, id, n, err)
	}
}
