package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/marmos91/hetty/pkg/listener"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ShutdownTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for zero shutdown timeout")
	}
}

func TestValidate_InvalidHandlerType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Handler.Type = "chargen"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unknown handler type")
	}
}

func TestValidate_InvalidHandlerOptions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name: "unknown echo option",
			mutate: func(cfg *Config) {
				cfg.Handler.Echo["colour"] = "blue"
			},
			wantErr: "colour",
		},
		{
			name: "malformed duration",
			mutate: func(cfg *Config) {
				cfg.Handler.Echo["idle_timeout"] = "soon"
			},
			wantErr: "echo",
		},
		{
			name: "negative discard buffer",
			mutate: func(cfg *Config) {
				cfg.Handler.Type = "discard"
				cfg.Handler.Discard["buffer_size"] = -1
			},
			wantErr: "BufferSize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_InvalidListener(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *listener.ServiceConfig)
	}{
		{"port out of range", func(l *listener.ServiceConfig) { l.BindPort = 65536 }},
		{"no acceptors", func(l *listener.ServiceConfig) { l.AcceptorThreads = 0 }},
		{"no workers", func(l *listener.ServiceConfig) { l.WorkerThreads = -1 }},
		{"unknown encoding", func(l *listener.ServiceConfig) { l.Encoding = "EBCDIC-XYZ" }},
		{"zero backlog", func(l *listener.ServiceConfig) { l.Backlog = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg.Listener)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, listener.ErrInvalidConfiguration) {
				t.Errorf("Expected ErrInvalidConfiguration, got: %v", err)
			}
		})
	}
}

func TestValidate_MetricsPortCollision(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = cfg.Listener.BindPort

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for metrics port collision")
	}
	if !strings.Contains(err.Error(), "already used by the listener") {
		t.Errorf("Unexpected error: %v", err)
	}

	// Ephemeral listener ports never collide
	cfg.Listener.BindPort = 0
	cfg.Metrics.Port = 0
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected ephemeral ports to pass, got: %v", err)
	}
}

func TestValidate_MetricsAddress(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Address = "not a host!"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid metrics address")
	}
}
