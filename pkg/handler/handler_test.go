package handler

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/hetty/pkg/listener"
)

func serveOverPipe(t *testing.T, factory listener.ConnectionHandlerFactory, ctx context.Context) (net.Conn, <-chan struct{}) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		factory.NewConnectionHandler(server).Serve(ctx)
	}()
	return client, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return")
	}
}

func TestEcho_EchoesUntilPeerCloses(t *testing.T) {
	client, done := serveOverPipe(t, NewEcho(EchoConfig{}, nil), context.Background())

	reader := bufio.NewReader(client)
	for _, msg := range []string{"hello\n", "world\n"} {
		_, err := io.WriteString(client, msg)
		require.NoError(t, err)
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, msg, line)
	}

	require.NoError(t, client.Close())
	waitDone(t, done)
}

func TestEcho_BannerUsesUTF8OutsideListener(t *testing.T) {
	client, _ := serveOverPipe(t, NewEcho(EchoConfig{Banner: "ciao è"}, nil), context.Background())

	line, err := bufio.NewReader(client).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ciao è\r\n", line)
}

func TestEcho_IdleTimeout(t *testing.T) {
	_, done := serveOverPipe(t, NewEcho(EchoConfig{IdleTimeout: 50 * time.Millisecond}, nil), context.Background())
	waitDone(t, done)
}

func TestEcho_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, done := serveOverPipe(t, NewEcho(EchoConfig{}, nil), ctx)

	cancel()
	waitDone(t, done)
}

func TestDiscard_DropsInput(t *testing.T) {
	client, done := serveOverPipe(t, NewDiscard(DiscardConfig{BufferSize: 16}, nil), context.Background())

	_, err := client.Write(make([]byte, 1000))
	require.NoError(t, err)

	// Nothing comes back
	require.NoError(t, client.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, err = client.Read(make([]byte, 1))
	require.Error(t, err)

	require.NoError(t, client.Close())
	waitDone(t, done)
}

func TestEcho_BannerInListenerCharset(t *testing.T) {
	svc, err := listener.NewBuilder().
		BindAddress("127.0.0.1").
		BindPort(0).
		WorkerThreads(1).
		Encoding("ISO-8859-1").
		Handler(NewEcho(EchoConfig{Banner: "héllo"}, nil)).
		Build()
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop(context.Background())

	conn, err := net.Dial("tcp", svc.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	banner := make([]byte, 7)
	_, err = io.ReadFull(conn, banner)
	require.NoError(t, err)
	assert.Equal(t, []byte{'h', 0xE9, 'l', 'l', 'o', '\r', '\n'}, banner)

	_, err = io.WriteString(conn, "ping")
	require.NoError(t, err)
	reply := make([]byte, 4)
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(reply))
}
