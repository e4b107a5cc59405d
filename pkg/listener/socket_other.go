//go:build !linux

package listener

import (
	"net"
	"syscall"
)

// controlListener keeps the runtime defaults on platforms without the
// Linux socket option set; Go already enables SO_REUSEADDR for listeners.
func controlListener(syscall.RawConn, ServiceConfig) error {
	return nil
}

// setBacklog is a no-op: the runtime uses the system maximum backlog.
func setBacklog(net.Listener, int) error {
	return nil
}
