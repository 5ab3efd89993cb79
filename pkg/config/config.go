// Package config loads, validates and materializes shelf configuration.
//
// Configuration declares a set of named stores, each with a backend type and
// type-specific options, plus ambient settings (logging, metrics). The
// factory functions in this package turn the declarative config into live
// store.Store instances.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete shelf configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SHELF_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store entry carries a Type field plus type-specific sections; only
// the section matching the selected type is used. This keeps one config
// schema while letting every backend define its own options.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics controls Prometheus metrics collection and the /metrics server
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Stores maps store names to their configuration
	Stores map[string]StoreConfig `mapstructure:"stores" validate:"dive"`

	// DefaultStore names the store used when a caller doesn't pick one
	DefaultStore string `mapstructure:"default_store"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Format specifies the log output format
	// Valid values: json, console
	Format string `mapstructure:"format" validate:"required,oneof=json console"`
}

// MetricsConfig controls Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the HTTP endpoint
	Enabled bool `mapstructure:"enabled"`

	// Port is the metrics HTTP server port (default 9090)
	Port int `mapstructure:"port"`
}

// StoreConfig specifies one named store.
//
// The Type field determines which backend is used. Only the corresponding
// type-specific configuration section is read.
type StoreConfig struct {
	// Type specifies which backend to use
	// Valid values: filesystem, memory, badger, s3
	Type string `mapstructure:"type" validate:"required,oneof=filesystem memory badger s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`

	// RateLimit optionally throttles the store's operations
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig throttles a store with a token bucket.
type RateLimitConfig struct {
	// OperationsPerSecond is the sustained operation rate (0 = unlimited)
	OperationsPerSecond uint `mapstructure:"operations_per_second"`

	// Burst is the bucket capacity (default 2x OperationsPerSecond)
	Burst uint `mapstructure:"burst"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable and config file handling.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the SHELF_ prefix and underscores.
	// Example: SHELF_LOGGING_LEVEL=debug
	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/shelf/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is fine - defaults and environment carry the configuration.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "shelf")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "shelf")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
