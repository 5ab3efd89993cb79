package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shelf-storage/shelf/pkg/metrics"
	"github.com/shelf-storage/shelf/pkg/registry"
)

// InitializeMetrics sets up metrics collection from configuration.
//
// When enabled, this initializes the global Prometheus registry and returns
// the HTTP server exposing /metrics (not yet started). When disabled, it
// returns nil and stores will run with no-op collectors.
func InitializeMetrics(cfg *Config) *metrics.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	metrics.InitRegistry()
	return metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})
}

// InitializeRegistry creates a fully configured Registry from configuration.
//
// Every entry in cfg.Stores is materialized and registered under its name.
// Any failure closes the stores created so far before returning, so a bad
// config never leaks open databases or S3 clients.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	reg, err := config.InitializeRegistry(ctx, cfg)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("failed to initialize registry")
//	}
//	defer reg.CloseAll()
func InitializeRegistry(ctx context.Context, cfg *Config) (*registry.Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}
	if len(cfg.Stores) == 0 {
		return nil, fmt.Errorf("no stores configured: at least one store is required")
	}

	reg := registry.NewRegistry()

	for name, storeCfg := range cfg.Stores {
		log.Debug().Str("store", name).Str("type", storeCfg.Type).Msg("creating store")

		st, err := CreateStore(ctx, name, storeCfg)
		if err != nil {
			_ = reg.CloseAll()
			return nil, fmt.Errorf("failed to create store %q: %w", name, err)
		}

		if err := reg.Register(name, st); err != nil {
			_ = st.Close()
			_ = reg.CloseAll()
			return nil, fmt.Errorf("failed to register store %q: %w", name, err)
		}
	}

	log.Debug().Int("count", reg.Count()).Msg("registry initialized")
	return reg, nil
}
