package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsApplied(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "info"

stores:
  local:
    type: "filesystem"
    filesystem:
      path: "/tmp/shelf-test"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("Expected default format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.DefaultStore != "local" {
		t.Errorf("Expected default store 'local', got %q", cfg.DefaultStore)
	}
	if cfg.Stores["local"].Filesystem["path"] != "/tmp/shelf-test" {
		t.Errorf("Expected explicit path to be preserved, got %v", cfg.Stores["local"].Filesystem["path"])
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Point at a non-existent file so the user's real config is never read.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default level 'info', got %q", cfg.Logging.Level)
	}
	if len(cfg.Stores) != 1 {
		t.Fatalf("Expected 1 default store, got %d", len(cfg.Stores))
	}
	if cfg.Stores["local"].Type != "filesystem" {
		t.Errorf("Expected default store type 'filesystem', got %q", cfg.Stores["local"].Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
logging:
  level: info
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_MultipleStores(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
default_store: "cache"

stores:
  cache:
    type: "memory"
  archive:
    type: "s3"
    s3:
      region: "us-east-1"
      bucket: "shelf-archive"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Stores) != 2 {
		t.Fatalf("Expected 2 stores, got %d", len(cfg.Stores))
	}
	if cfg.DefaultStore != "cache" {
		t.Errorf("Expected default store 'cache', got %q", cfg.DefaultStore)
	}
	if cfg.Stores["archive"].S3["bucket"] != "shelf-archive" {
		t.Errorf("Expected bucket 'shelf-archive', got %v", cfg.Stores["archive"].S3["bucket"])
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("SHELF_LOGGING_LEVEL", "error")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "info"

stores:
  local:
    type: "memory"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "error" {
		t.Errorf("Expected level 'error' from env var, got %q", cfg.Logging.Level)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected default log format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.DefaultStore != "local" {
		t.Errorf("Expected default store 'local', got %q", cfg.DefaultStore)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != "shelf" {
		t.Errorf("Expected directory 'shelf', got %q", filepath.Dir(path))
	}
}
