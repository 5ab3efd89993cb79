package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
)

// Get returns the item stored under key, creating it on a miss.
//
// Note the read-check-write here is not atomic: under concurrent Gets for the
// same missing key, both callers may upload, which is harmless because both
// upload the same freshly normalized item.
func (s *S3Store) Get(ctx context.Context, key string) (it item.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Get", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	it, err = s.peek(ctx, key)
	if err == nil {
		return it, nil
	}
	if !errors.Is(err, store.ErrItemNotFound) {
		return nil, err
	}

	created := item.New()
	if err = s.put(ctx, key, created); err != nil {
		return nil, err
	}
	return created.Normalize(key), nil
}

// Peek returns the item stored under key, failing on a miss.
func (s *S3Store) Peek(ctx context.Context, key string) (it item.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Peek", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	return s.peek(ctx, key)
}

func (s *S3Store) peek(ctx context.Context, key string) (item.Item, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("item %s: %w", key, store.ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	it, err := item.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w: %v", key, store.ErrMalformedItem, err)
	}
	return it, nil
}

// Size returns the byte length of the stored encoding for key, using a HEAD
// request so the body is never downloaded.
func (s *S3Store) Size(ctx context.Context, key string) (n uint64, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Size", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		// HeadObject reports a missing key as types.NotFound, not NoSuchKey.
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return 0, fmt.Errorf("item %s: %w", key, store.ErrItemNotFound)
		}
		return 0, fmt.Errorf("failed to head object: %w", err)
	}

	if result.ContentLength == nil {
		return 0, fmt.Errorf("content length not available for item %s", key)
	}
	return uint64(*result.ContentLength), nil
}
