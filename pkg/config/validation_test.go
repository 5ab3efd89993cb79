package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{
		Stores: map[string]StoreConfig{
			"local": {Type: "memory"},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Expected valid config to pass, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for bad log level, got nil")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected oneof violation, got: %v", err)
	}
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for bad log format, got nil")
	}
}

func TestValidate_BadStoreType(t *testing.T) {
	cfg := validConfig()
	cfg.Stores["local"] = StoreConfig{Type: "redis"}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown store type, got nil")
	}
}

func TestValidate_NoStores(t *testing.T) {
	cfg := validConfig()
	cfg.Stores = nil

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for empty stores, got nil")
	}
}

func TestValidate_DefaultStoreMustExist(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultStore = "missing"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for dangling default_store, got nil")
	}
	if !strings.Contains(err.Error(), "default_store") {
		t.Errorf("Expected default_store in error, got: %v", err)
	}
}

func TestValidate_AmbiguousDefaultStore(t *testing.T) {
	cfg := &Config{
		Stores: map[string]StoreConfig{
			"a": {Type: "memory"},
			"b": {Type: "memory"},
		},
	}
	ApplyDefaults(cfg)

	// Two stores, neither named "local": no default can be inferred.
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for ambiguous default store, got nil")
	}
}

func TestValidate_BadMetricsPort(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for out-of-range metrics port, got nil")
	}
}
