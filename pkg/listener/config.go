package listener

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// ServiceConfig holds the startup parameters of a listener Service.
//
// A Service keeps its own copy of the ServiceConfig it was built with, so a
// running service never observes changes made to the caller's value.
// Reconfiguring means building a new Service, or Stop followed by a new
// Build and Start.
//
// Socket options are applied where the kernel honours them:
//   - listener: ReuseAddress, NoDelay, Backlog
//   - accepted connections: KeepAlive, ReceiveBufferSize, SendBufferSize, NoDelay
type ServiceConfig struct {
	// BindAddress is the local address to listen on. Empty or 0.0.0.0
	// listens on all IPv4 interfaces.
	BindAddress string `mapstructure:"bind_address" validate:"omitempty,ip|hostname"`

	// BindPort is the TCP port to listen on. 0 asks the kernel for an
	// ephemeral port; BoundPort reports the one it picked.
	BindPort int `mapstructure:"bind_port" validate:"min=0,max=65535"`

	// AcceptorThreads is the number of goroutines calling Accept.
	AcceptorThreads int `mapstructure:"acceptor_threads" validate:"gt=0"`

	// WorkerThreads is the number of goroutines serving accepted
	// connections. It bounds the number of connections served concurrently.
	WorkerThreads int `mapstructure:"worker_threads" validate:"gt=0"`

	// ReceiveBufferSize is SO_RCVBUF for accepted connections, in bytes.
	ReceiveBufferSize int `mapstructure:"receive_buffer_size" validate:"gt=0"`

	// SendBufferSize is SO_SNDBUF for accepted connections, in bytes.
	SendBufferSize int `mapstructure:"send_buffer_size" validate:"gt=0"`

	// KeepAlive enables TCP keep-alive probes on accepted connections.
	KeepAlive bool `mapstructure:"keep_alive"`

	// ReuseAddress sets SO_REUSEADDR on the listener.
	ReuseAddress bool `mapstructure:"reuse_address"`

	// NoDelay disables Nagle's algorithm.
	NoDelay bool `mapstructure:"no_delay"`

	// Backlog is the kernel accept queue depth. It also sizes the queue
	// between the acceptor and worker pools.
	Backlog int `mapstructure:"backlog" validate:"gt=0"`

	// Encoding is the IANA name of the character set handlers should use
	// (e.g. "UTF-8", "ISO-8859-1"). Handlers read it with Charset(ctx).
	Encoding string `mapstructure:"encoding" validate:"required,charset"`

	// ShutdownTimeout bounds each wait of Stop: once for connections to
	// finish after cancellation, once more after they are force-closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// AcceptRate limits accepted connections per second. 0 means unlimited.
	AcceptRate int `mapstructure:"accept_rate" validate:"min=0"`

	// AcceptBurst is the number of connections that may be accepted
	// back-to-back when AcceptRate is set. 0 defaults to AcceptRate.
	AcceptBurst int `mapstructure:"accept_burst" validate:"min=0"`
}

// Default values, taken from the bootstrap options the service has always
// used.
const (
	DefaultBindAddress       = "0.0.0.0"
	DefaultBindPort          = 8080
	DefaultAcceptorThreads   = 1
	DefaultBufferSize        = 8192
	DefaultBacklog           = 256
	DefaultEncoding          = "UTF-8"
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultKeepAlive         = false
	DefaultReuseAddress      = true
	DefaultNoDelay           = true
	defaultWorkersPerProcess = 2
)

// DefaultConfig returns a ServiceConfig with every field set to its default.
func DefaultConfig() ServiceConfig {
	return ServiceConfig{
		BindAddress:       DefaultBindAddress,
		BindPort:          DefaultBindPort,
		AcceptorThreads:   DefaultAcceptorThreads,
		WorkerThreads:     defaultWorkersPerProcess * runtime.GOMAXPROCS(0),
		ReceiveBufferSize: DefaultBufferSize,
		SendBufferSize:    DefaultBufferSize,
		KeepAlive:         DefaultKeepAlive,
		ReuseAddress:      DefaultReuseAddress,
		NoDelay:           DefaultNoDelay,
		Backlog:           DefaultBacklog,
		Encoding:          DefaultEncoding,
		ShutdownTimeout:   DefaultShutdownTimeout,
	}
}

// Address returns BindAddress:BindPort.
func (c ServiceConfig) Address() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.BindPort))
}

// Validate checks ranges and the encoding name. The returned error matches
// ErrInvalidConfiguration.
func (c ServiceConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("charset", func(fl validator.FieldLevel) bool {
		_, err := lookupCharset(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("register charset validation: %v", err))
	}
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%w: %s: validation failed on '%s' tag (value: %v)",
			ErrInvalidConfiguration, e.Namespace(), e.Tag(), e.Value())
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
}

// lookupCharset resolves an IANA character set name.
func lookupCharset(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is known but not supported", name)
	}
	return enc, nil
}
