package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const configHeader = `# Hetty Configuration File
#
# Values below are the defaults. Every key can be overridden with an
# environment variable: HETTY_<SECTION>_<KEY>, e.g. HETTY_LISTENER_BIND_PORT.

`

// section is one top-level block of the generated file.
type section struct {
	key     string
	comment string
	value   any
}

// InitConfig writes a default configuration file to the default location.
//
// Returns the path of the written file. An existing file is only replaced
// when force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as YAML with a comment above each
// section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []section{
		{"logging", "Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json), output (stdout, stderr, file path)", cfg.Logging},
		{"server", "Server: upper bound for stopping the whole host", cfg.Server},
		{"listener", "Listener: bind address and port (0 = ephemeral), pool sizes, socket options, charset", cfg.Listener},
		{"handler", "Handler: type selects echo or discard; only the matching section is used", cfg.Handler},
		{"metrics", "Metrics: Prometheus endpoint served at /metrics when enabled", cfg.Metrics},
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range sections {
		values, err := toMap(s.value)
		if err != nil {
			return "", fmt.Errorf("failed to render %s section: %w", s.key, err)
		}

		var value yaml.Node
		if err := value.Encode(values); err != nil {
			return "", fmt.Errorf("failed to encode %s section: %w", s.key, err)
		}

		key := &yaml.Node{Kind: yaml.ScalarNode, Value: s.key, HeadComment: s.comment}
		root.Content = append(root.Content, key, &value)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	return buf.String(), nil
}

// toMap converts a config struct into a map keyed by its mapstructure tags,
// so the file uses the same keys Load reads. Durations are rendered as
// strings ("5s").
func toMap(v any) (map[string]any, error) {
	var out map[string]any
	if err := mapstructure.Decode(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
