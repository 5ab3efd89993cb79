// Package s3 implements the item store contract on Amazon S3 or any
// S3-compatible object store (MinIO, Localstack, Cubbit DS3).
//
// One object per item key; the object body is the normalized JSON encoding,
// identical to what the filesystem adapter writes. The raw item key is used
// directly as the object key (with an optional configured prefix), which
// keeps bucket contents human-readable and inspectable with standard S3
// tooling.
package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shelf-storage/shelf/pkg/store"
)

// S3Store implements store.Store on top of an S3 bucket.
//
// Thread Safety:
// Safe for concurrent use. Concurrent puts to the same key resolve
// last-writer-wins under S3's consistency model.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	metrics   store.Metrics
}

// Config contains configuration for creating an S3Store.
type Config struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "shelf/items/" results in keys like "shelf/items/user:42".
	KeyPrefix string

	// Metrics receives per-operation observations. Nil means no collection.
	Metrics store.Metrics
}

// NewS3Store creates a new S3-backed item store.
//
// This verifies bucket access with a HEAD request. The bucket must already
// exist - this function does not create it.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = store.NopMetrics()
	}

	return &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		metrics:   metrics,
	}, nil
}

// objectKey returns the full S3 object key for an item key.
func (s *S3Store) objectKey(key string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}
	return key
}

// itemKey strips the configured prefix from an object key, recovering the
// item key the caller originally used.
func (s *S3Store) itemKey(objectKey string) string {
	if s.keyPrefix != "" && len(objectKey) > len(s.keyPrefix) {
		return objectKey[len(s.keyPrefix):]
	}
	return objectKey
}

// Open implements store.Store; the client is ready after construction.
func (s *S3Store) Open(ctx context.Context) error {
	return ctx.Err()
}

// Close implements store.Store. The underlying HTTP client needs no
// teardown.
func (s *S3Store) Close() error {
	return nil
}

// Flush implements store.Store. Every Put is immediately durable in S3, so
// there is nothing to flush.
func (s *S3Store) Flush(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Flush", time.Since(start), err) }()
	return ctx.Err()
}
