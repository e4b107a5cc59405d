package handler

import (
	"context"
	"net"
	"time"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/pkg/listener"
)

// DiscardConfig configures the discard handler.
type DiscardConfig struct {
	// BufferSize is the size of the read buffer per connection, in bytes.
	BufferSize int `mapstructure:"buffer_size" validate:"omitempty,gt=0"`

	// IdleTimeout closes connections that send nothing for this long.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
}

// Discard reads and drops everything a peer sends (RFC 863).
type Discard struct {
	config DiscardConfig
	log    *logger.Logger
}

func NewDiscard(config DiscardConfig, log *logger.Logger) *Discard {
	if config.BufferSize == 0 {
		config.BufferSize = defaultBufferSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Discard{config: config, log: log}
}

func (d *Discard) NewConnectionHandler(conn net.Conn) listener.ConnectionHandler {
	return listener.ServeFunc(d.serve).NewConnectionHandler(conn)
}

func (d *Discard) serve(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	n, err := copyWithIdleTimeout(nil, conn, d.config.BufferSize, d.config.IdleTimeout)
	logCopyResult(ctx, d.log, "Discard", listener.ConnectionID(ctx), n, err)
}
