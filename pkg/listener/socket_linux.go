//go:build linux

package listener

import (
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// controlListener sets SO_REUSEADDR and TCP_NODELAY on the listening socket
// before bind. Accepted sockets inherit TCP_NODELAY on Linux.
func controlListener(c syscall.RawConn, cfg ServiceConfig) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, boolToInt(cfg.ReuseAddress)); err != nil {
			opErr = fmt.Errorf("set SO_REUSEADDR: %w", err)
			return
		}
		if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, boolToInt(cfg.NoDelay)); err != nil {
			opErr = fmt.Errorf("set TCP_NODELAY: %w", err)
			return
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

// setBacklog re-issues listen(2) with the configured backlog. Linux updates
// the accept queue depth of an already listening socket in place.
func setBacklog(ln net.Listener, backlog int) error {
	tl, ok := ln.(*net.TCPListener)
	if !ok {
		return nil
	}

	rc, err := tl.SyscallConn()
	if err != nil {
		return fmt.Errorf("listener raw conn: %w", err)
	}

	var opErr error
	if err := rc.Control(func(fd uintptr) {
		opErr = unix.Listen(int(fd), backlog)
	}); err != nil {
		return err
	}
	if opErr != nil {
		return fmt.Errorf("set backlog %d: %w", backlog, opErr)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
