package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shelf-storage/shelf/pkg/item"
)

// Put persists the normalized item under key, replacing any previous object.
func (s *S3Store) Put(ctx context.Context, key string, it item.Item) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Put", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	return s.put(ctx, key, it)
}

func (s *S3Store) put(ctx context.Context, key string, it item.Item) error {
	data, err := it.Normalize(key).Marshal()
	if err != nil {
		return fmt.Errorf("item %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to write object to S3: %w", err)
	}
	return nil
}

// Delete removes the object stored under key. S3's DeleteObject succeeds for
// missing keys, which gives the idempotency the contract requires for free.
func (s *S3Store) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Delete", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}
