package config

import (
	"path/filepath"
	"strings"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Called after loading configuration from file and environment so that zero
// values (0, "", false, nil) get sensible defaults while explicit values are
// preserved. Store-specific option defaults are handled by the store
// constructors themselves.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)

	// With no stores configured, provide a local filesystem store so a bare
	// invocation still works.
	if len(cfg.Stores) == 0 {
		cfg.Stores = map[string]StoreConfig{
			"local": {
				Type: "filesystem",
			},
		}
	}

	applyStoreDefaults(cfg.Stores)

	if cfg.DefaultStore == "" {
		cfg.DefaultStore = pickDefaultStore(cfg.Stores)
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	cfg.Level = strings.ToLower(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "json"
	}
	cfg.Format = strings.ToLower(cfg.Format)
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyStoreDefaults fills in per-store option defaults.
func applyStoreDefaults(stores map[string]StoreConfig) {
	for name, sc := range stores {
		if sc.Filesystem == nil {
			sc.Filesystem = make(map[string]any)
		}
		if sc.Memory == nil {
			sc.Memory = make(map[string]any)
		}
		if sc.Badger == nil {
			sc.Badger = make(map[string]any)
		}
		if sc.S3 == nil {
			sc.S3 = make(map[string]any)
		}

		// Filesystem and badger stores get paths derived from the store name,
		// so two stores never collide on disk.
		if sc.Type == "filesystem" {
			if _, ok := sc.Filesystem["path"]; !ok {
				sc.Filesystem["path"] = filepath.Join("/var/lib/shelf", name)
			}
		}
		if sc.Type == "badger" {
			if _, ok := sc.Badger["path"]; !ok {
				sc.Badger["path"] = filepath.Join("/var/lib/shelf", name+"-badger")
			}
		}

		stores[name] = sc
	}
}

// pickDefaultStore chooses a default store name: "local" when present,
// otherwise the sole configured store, otherwise nothing (validation will
// reject the ambiguity).
func pickDefaultStore(stores map[string]StoreConfig) string {
	if _, ok := stores["local"]; ok {
		return "local"
	}
	if len(stores) == 1 {
		for name := range stores {
			return name
		}
	}
	return ""
}

// GetDefaultConfig returns a Config with all default values applied.
//
// Useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
