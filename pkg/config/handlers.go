package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/hetty/internal/logger"
	"github.com/marmos91/hetty/pkg/handler"
	"github.com/marmos91/hetty/pkg/listener"
)

// CreateHandlerFactory creates the connection handler factory selected by
// configuration.
//
// This factory function uses the Type field to determine which handler to
// create, then decodes the type-specific configuration from the
// corresponding map and passes it to the handler's constructor.
//
// Supported types:
//   - "echo": Uses handler.Echo (writes back everything it reads)
//   - "discard": Uses handler.Discard (drops everything it reads)
//
// Parameters:
//   - cfg: Handler configuration
//   - log: Logger handed to the handler
//
// Returns:
//   - listener.ConnectionHandlerFactory: Factory invoked once per connection
//   - error: Configuration error
func CreateHandlerFactory(cfg *HandlerConfig, log *logger.Logger) (listener.ConnectionHandlerFactory, error) {
	options, err := decodeHandlerOptions(cfg)
	if err != nil {
		return nil, err
	}

	switch opts := options.(type) {
	case handler.EchoConfig:
		return handler.NewEcho(opts, log), nil
	case handler.DiscardConfig:
		return handler.NewDiscard(opts, log), nil
	default:
		return nil, fmt.Errorf("unknown handler type: %q", cfg.Type)
	}
}

// decodeHandlerOptions decodes and validates the options of the selected
// handler type.
func decodeHandlerOptions(cfg *HandlerConfig) (any, error) {
	switch cfg.Type {
	case "echo":
		var opts handler.EchoConfig
		if err := decodeOptions(cfg.Echo, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode echo handler config: %w", err)
		}
		if err := validate.Struct(opts); err != nil {
			return nil, fmt.Errorf("echo handler: %w", formatValidationError(err))
		}
		return opts, nil
	case "discard":
		var opts handler.DiscardConfig
		if err := decodeOptions(cfg.Discard, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode discard handler config: %w", err)
		}
		if err := validate.Struct(opts); err != nil {
			return nil, fmt.Errorf("discard handler: %w", formatValidationError(err))
		}
		return opts, nil
	default:
		return nil, fmt.Errorf("unknown handler type: %q", cfg.Type)
	}
}

// decodeOptions decodes a type-specific options map, accepting durations
// written as strings ("30s").
func decodeOptions(options map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           result,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}
