package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

listener:
  bind_port: 9000
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Listener.BindPort != 9000 {
		t.Errorf("Expected bind_port 9000, got %d", cfg.Listener.BindPort)
	}
	if !cfg.Listener.ReuseAddress {
		t.Error("Expected reuse_address to default to true")
	}
	if !cfg.Listener.NoDelay {
		t.Error("Expected no_delay to default to true")
	}
	if cfg.Listener.Backlog != 256 {
		t.Errorf("Expected default backlog 256, got %d", cfg.Listener.Backlog)
	}
	if cfg.Handler.Type != "echo" {
		t.Errorf("Expected default handler 'echo', got %q", cfg.Handler.Type)
	}
}

func TestLoad_ExplicitFalseBooleans(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
listener:
  reuse_address: false
  no_delay: false
  keep_alive: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Listener.ReuseAddress {
		t.Error("Expected explicit reuse_address: false to be kept")
	}
	if cfg.Listener.NoDelay {
		t.Error("Expected explicit no_delay: false to be kept")
	}
	if !cfg.Listener.KeepAlive {
		t.Error("Expected keep_alive: true")
	}
}

func TestLoad_Durations(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  shutdown_timeout: 1m
listener:
  shutdown_timeout: 250ms
handler:
  type: discard
  discard:
    idle_timeout: 10s
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.ShutdownTimeout != time.Minute {
		t.Errorf("Expected server shutdown_timeout 1m, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Listener.ShutdownTimeout != 250*time.Millisecond {
		t.Errorf("Expected listener shutdown_timeout 250ms, got %v", cfg.Listener.ShutdownTimeout)
	}
	if cfg.Handler.Type != "discard" {
		t.Errorf("Expected handler 'discard', got %q", cfg.Handler.Type)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Use a non-existent path so the user's ~/.config/hetty is never read
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Listener.BindPort != 8080 {
		t.Errorf("Expected default bind_port 8080, got %d", cfg.Listener.BindPort)
	}
	if cfg.Listener.Encoding != "UTF-8" {
		t.Errorf("Expected default encoding 'UTF-8', got %q", cfg.Listener.Encoding)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidListener(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
listener:
  bind_port: 70000
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for out-of-range bind_port")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[listener]
bind_address = "127.0.0.1"
bind_port = 7000
encoding = "ISO-8859-1"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Listener.Address() != "127.0.0.1:7000" {
		t.Errorf("Expected address 127.0.0.1:7000, got %q", cfg.Listener.Address())
	}
	if cfg.Listener.Encoding != "ISO-8859-1" {
		t.Errorf("Expected encoding 'ISO-8859-1', got %q", cfg.Listener.Encoding)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("HETTY_LOGGING_LEVEL", "ERROR")
	t.Setenv("HETTY_LISTENER_BIND_PORT", "5049")
	t.Setenv("HETTY_LISTENER_WORKER_THREADS", "3")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

listener:
  bind_port: 2049
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Environment variables override the config file
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Listener.BindPort != 5049 {
		t.Errorf("Expected port 5049 from env var, got %d", cfg.Listener.BindPort)
	}
	// Keys absent from the file still resolve through registered defaults
	if cfg.Listener.WorkerThreads != 3 {
		t.Errorf("Expected worker_threads 3 from env var, got %d", cfg.Listener.WorkerThreads)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if filepath.Base(GetConfigDir()) != "hetty" {
		t.Errorf("Expected directory name 'hetty', got %q", filepath.Base(GetConfigDir()))
	}
}

func TestConfigExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if ConfigExists() {
		t.Fatal("Expected no config in a fresh config dir")
	}
	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !ConfigExists() {
		t.Error("Expected config to exist after InitConfig")
	}
}
