package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/shelf-storage/shelf/pkg/metrics"
	"github.com/shelf-storage/shelf/pkg/store"
	"github.com/shelf-storage/shelf/pkg/store/badger"
	"github.com/shelf-storage/shelf/pkg/store/fs"
	"github.com/shelf-storage/shelf/pkg/store/limited"
	"github.com/shelf-storage/shelf/pkg/store/memory"
	"github.com/shelf-storage/shelf/pkg/store/s3"
)

// CreateStore creates one named store from its configuration.
//
// The Type field selects the backend; the matching type-specific section is
// decoded into that backend's config struct and handed to its constructor.
// The store name doubles as the metrics label.
//
// Supported types:
//   - "filesystem": one file per key under a root directory
//   - "memory": ephemeral in-process storage
//   - "badger": embedded BadgerDB
//   - "s3": Amazon S3 or any S3-compatible service
//
// When a rate_limit section is present the backend is wrapped so that
// every data operation waits for a token before reaching it.
func CreateStore(ctx context.Context, name string, cfg StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Type {
	case "filesystem":
		st, err = createFilesystemStore(ctx, name, cfg.Filesystem)
	case "memory":
		st, err = createMemoryStore(ctx, name)
	case "badger":
		st, err = createBadgerStore(ctx, name, cfg.Badger)
	case "s3":
		st, err = createS3Store(ctx, name, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit.OperationsPerSecond > 0 {
		st, err = limited.NewLimitedStore(st, limited.Config{
			OperationsPerSecond: cfg.RateLimit.OperationsPerSecond,
			Burst:               cfg.RateLimit.Burst,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to apply rate limit to store %q: %w", name, err)
		}
	}

	return st, nil
}

// createFilesystemStore creates a filesystem-backed store.
func createFilesystemStore(ctx context.Context, name string, options map[string]any) (store.Store, error) {
	var opts struct {
		Path string `mapstructure:"path"`
	}
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem store config: %w", err)
	}

	if opts.Path == "" {
		return nil, fmt.Errorf("filesystem store: path is required")
	}

	st, err := fs.NewFileStore(ctx, fs.Config{
		Path:    opts.Path,
		Metrics: metrics.NewStoreMetrics(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem store: %w", err)
	}
	return st, nil
}

// createMemoryStore creates an in-memory store.
func createMemoryStore(ctx context.Context, name string) (store.Store, error) {
	st, err := memory.NewMemoryStore(ctx, memory.Config{
		Metrics: metrics.NewStoreMetrics(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}
	return st, nil
}

// createBadgerStore creates a BadgerDB-backed store.
func createBadgerStore(ctx context.Context, name string, options map[string]any) (store.Store, error) {
	var opts struct {
		Path     string `mapstructure:"path"`
		InMemory bool   `mapstructure:"in_memory"`
	}
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode badger store config: %w", err)
	}

	if opts.Path == "" && !opts.InMemory {
		return nil, fmt.Errorf("badger store: path is required")
	}

	st, err := badger.NewBadgerStore(ctx, badger.Config{
		Path:     opts.Path,
		InMemory: opts.InMemory,
		Metrics:  metrics.NewStoreMetrics(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger store: %w", err)
	}
	return st, nil
}

// createS3Store creates an S3-backed store.
func createS3Store(ctx context.Context, name string, options map[string]any) (store.Store, error) {
	var opts struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 store config: %w", err)
	}

	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 store: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("S3 store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	// Static credentials when provided, the default credential chain
	// (environment, shared config, instance role) otherwise.
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			)))
	}

	// More retries than the AWS default of 3; item operations are small and
	// transient 5xx responses are common enough to matter.
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		// Custom endpoint for MinIO, Localstack and other S3-compatibles.
		// Those need path-style addressing; virtual-host style assumes AWS DNS.
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	st, err := s3.NewS3Store(ctx, s3.Config{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
		Metrics:   metrics.NewStoreMetrics(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}
	return st, nil
}
