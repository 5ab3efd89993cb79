package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a default configuration file to the standard location
// ($XDG_CONFIG_HOME/shelf/config.yaml) and returns its path.
//
// Fails if the file already exists unless force is true.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath writes a default configuration file to the given path,
// creating parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders a Config as annotated YAML.
//
// The Config struct carries mapstructure tags only, so each section is
// rebuilt as a plain map with the wire-level key names before marshaling.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var b strings.Builder

	b.WriteString("# Shelf Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Values here can be overridden with SHELF_* environment variables,\n")
	b.WriteString("# e.g. SHELF_LOGGING_LEVEL=debug.\n\n")

	sections := []struct {
		comment string
		doc     map[string]any
	}{
		{
			comment: "# Logging configuration",
			doc: map[string]any{
				"logging": map[string]any{
					"level":  cfg.Logging.Level,
					"format": cfg.Logging.Format,
				},
			},
		},
		{
			comment: "# Prometheus metrics endpoint",
			doc: map[string]any{
				"metrics": map[string]any{
					"enabled": cfg.Metrics.Enabled,
					"port":    cfg.Metrics.Port,
				},
			},
		},
		{
			comment: "# Named stores. Each entry declares a backend type (filesystem,\n# memory, badger or s3) and its type-specific options.",
			doc: map[string]any{
				"stores": storesDoc(cfg.Stores),
			},
		},
		{
			comment: "# Store used when a command does not name one explicitly",
			doc: map[string]any{
				"default_store": cfg.DefaultStore,
			},
		},
	}

	for _, s := range sections {
		b.WriteString(s.comment)
		b.WriteString("\n")

		out, err := yaml.Marshal(s.doc)
		if err != nil {
			return "", fmt.Errorf("failed to marshal config section: %w", err)
		}
		b.Write(out)
		b.WriteString("\n")
	}

	return b.String(), nil
}

// storesDoc rebuilds the stores map with mapstructure key names, omitting
// empty option sections so the generated file stays readable.
func storesDoc(stores map[string]StoreConfig) map[string]any {
	doc := make(map[string]any, len(stores))
	for name, sc := range stores {
		entry := map[string]any{"type": sc.Type}
		if len(sc.Filesystem) > 0 {
			entry["filesystem"] = sc.Filesystem
		}
		if len(sc.Memory) > 0 {
			entry["memory"] = sc.Memory
		}
		if len(sc.Badger) > 0 {
			entry["badger"] = sc.Badger
		}
		if len(sc.S3) > 0 {
			entry["s3"] = sc.S3
		}
		if sc.RateLimit.OperationsPerSecond > 0 {
			entry["rate_limit"] = map[string]any{
				"operations_per_second": sc.RateLimit.OperationsPerSecond,
				"burst":                 sc.RateLimit.Burst,
			}
		}
		doc[name] = entry
	}
	return doc
}
