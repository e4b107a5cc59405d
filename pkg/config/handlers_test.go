package config

import (
	"strings"
	"testing"

	"github.com/marmos91/hetty/pkg/handler"
	"github.com/marmos91/hetty/pkg/metrics"
)

func TestCreateHandlerFactory_Echo(t *testing.T) {
	cfg := &HandlerConfig{
		Type: "echo",
		Echo: map[string]any{
			"banner":       "welcome",
			"idle_timeout": "30s",
			"buffer_size":  "1024",
		},
	}

	factory, err := CreateHandlerFactory(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create echo handler: %v", err)
	}
	if _, ok := factory.(*handler.Echo); !ok {
		t.Fatalf("Expected *handler.Echo, got %T", factory)
	}
}

func TestCreateHandlerFactory_Discard(t *testing.T) {
	cfg := &HandlerConfig{
		Type:    "discard",
		Discard: map[string]any{},
	}

	factory, err := CreateHandlerFactory(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create discard handler: %v", err)
	}
	if _, ok := factory.(*handler.Discard); !ok {
		t.Fatalf("Expected *handler.Discard, got %T", factory)
	}
}

func TestCreateHandlerFactory_NilOptions(t *testing.T) {
	factory, err := CreateHandlerFactory(&HandlerConfig{Type: "echo"}, nil)
	if err != nil {
		t.Fatalf("Expected nil options to decode as defaults, got: %v", err)
	}
	if factory == nil {
		t.Fatal("Expected non-nil factory")
	}
}

func TestCreateHandlerFactory_UnknownType(t *testing.T) {
	_, err := CreateHandlerFactory(&HandlerConfig{Type: "chargen"}, nil)
	if err == nil {
		t.Fatal("Expected error for unknown handler type")
	}
	if !strings.Contains(err.Error(), "unknown handler type") {
		t.Errorf("Expected 'unknown handler type' error, got: %v", err)
	}
}

func TestCreateListener(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Listener.BindAddress = "127.0.0.1"
	cfg.Listener.BindPort = 0

	svc, err := CreateListener(cfg, nil, nil)
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	if svc.IsRunning() {
		t.Error("Expected listener to be idle after creation")
	}
	if svc.Config() != cfg.Listener {
		t.Errorf("Expected listener config %+v, got %+v", cfg.Listener, svc.Config())
	}
}

func TestCreateListener_InvalidHandler(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Handler.Echo["buffer_size"] = "lots"

	if _, err := CreateListener(cfg, nil, nil); err == nil {
		t.Fatal("Expected error for invalid handler options")
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	result := InitializeMetrics(GetDefaultConfig(), nil)

	if result.Server != nil {
		t.Error("Expected nil server when metrics are disabled")
	}
	if result.Registry != nil {
		t.Error("Expected nil registry when metrics are disabled")
	}
	if result.ListenerMetrics != metrics.NewNoopListenerMetrics() {
		t.Errorf("Expected noop listener metrics, got %T", result.ListenerMetrics)
	}
}

func TestInitializeMetrics_Enabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 19191

	result := InitializeMetrics(cfg, nil)

	if result.Server == nil || result.Registry == nil {
		t.Fatal("Expected server and registry when metrics are enabled")
	}
	if result.Server.Port() != 19191 {
		t.Errorf("Expected metrics port 19191, got %d", result.Server.Port())
	}

	result.ListenerMetrics.RecordStart()
	families, err := result.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "hetty_listener_lifecycle_events_total" {
			found = true
		}
	}
	if !found {
		t.Error("Expected listener metrics to be registered")
	}
}
