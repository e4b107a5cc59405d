package listener

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

var (
	// ErrInvalidConfiguration is returned by the builder and New when a
	// ServiceConfig is out of range. No socket or goroutine has been created
	// when it is returned.
	ErrInvalidConfiguration = errors.New("invalid listener configuration")

	// ErrBindFailed matches every *BindError.
	ErrBindFailed = errors.New("bind failed")
)

// BindError is returned by Start when the listening socket could not be
// bound. The service is Idle and holds no pool goroutines when it is
// returned.
type BindError struct {
	Address string
	Port    int
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", net.JoinHostPort(e.Address, strconv.Itoa(e.Port)), e.Err)
}

func (e *BindError) Unwrap() []error {
	return []error{ErrBindFailed, e.Err}
}

// TeardownWarning collects the errors hit while stopping a service. It is
// logged, never returned: Stop always reaches Idle.
type TeardownWarning struct {
	Address string
	Err     error
}

func (w *TeardownWarning) Error() string {
	return fmt.Sprintf("teardown of listener %s incomplete: %v", w.Address, w.Err)
}

func (w *TeardownWarning) Unwrap() error {
	return w.Err
}
