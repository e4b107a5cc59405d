package listener

import (
	"context"
	"net"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// ConnectionHandler processes one accepted connection.
//
// Serve runs on a worker goroutine and should return when the peer closes
// the connection or ctx is cancelled (Stop cancels it). The worker closes
// the connection after Serve returns.
type ConnectionHandler interface {
	Serve(ctx context.Context)
}

// ConnectionHandlerFactory builds the processing chain for an accepted
// connection. It is invoked exactly once per connection, concurrently from
// every worker goroutine, so implementations must be safe for concurrent
// use. The Service never inspects the returned handler.
//
// A factory is shared, not owned: the same factory may be reused across
// restarts and by several services.
type ConnectionHandlerFactory interface {
	NewConnectionHandler(conn net.Conn) ConnectionHandler
}

// ConnectionHandlerFactoryFunc adapts a function to ConnectionHandlerFactory.
type ConnectionHandlerFactoryFunc func(conn net.Conn) ConnectionHandler

func (f ConnectionHandlerFactoryFunc) NewConnectionHandler(conn net.Conn) ConnectionHandler {
	return f(conn)
}

// ServeFunc is a ConnectionHandlerFactory whose handler is a single
// function of the connection.
type ServeFunc func(ctx context.Context, conn net.Conn)

func (f ServeFunc) NewConnectionHandler(conn net.Conn) ConnectionHandler {
	return &funcHandler{conn: conn, serve: f}
}

type funcHandler struct {
	conn  net.Conn
	serve ServeFunc
}

func (h *funcHandler) Serve(ctx context.Context) {
	h.serve(ctx, h.conn)
}

type contextKey int

const (
	connectionIDKey contextKey = iota
	charsetKey
)

// ConnectionID returns the identifier the Service assigned to the
// connection being served, or "" outside a handler.
func ConnectionID(ctx context.Context) string {
	id, _ := ctx.Value(connectionIDKey).(string)
	return id
}

// Charset returns the character set configured with ServiceConfig.Encoding.
// Outside a handler it returns UTF-8.
func Charset(ctx context.Context) encoding.Encoding {
	if enc, ok := ctx.Value(charsetKey).(encoding.Encoding); ok {
		return enc
	}
	return unicode.UTF8
}

func withConnection(ctx context.Context, id string, charset encoding.Encoding) context.Context {
	ctx = context.WithValue(ctx, connectionIDKey, id)
	return context.WithValue(ctx, charsetKey, charset)
}
