package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shelf-storage/shelf/pkg/store"
)

// TotalSize sums object sizes over every key under the configured prefix.
//
// This lists the whole bucket (prefix), so it is proportional to the number
// of items stored. S3 list pages carry sizes, so no object body is read.
func (s *S3Store) TotalSize(ctx context.Context) (n uint64, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("TotalSize", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Size != nil {
				n += uint64(*obj.Size)
			}
		}
	}
	return n, nil
}

// Keys returns an iterator over every key under the configured prefix.
//
// Pages are fetched lazily: a consumer that stops after a few keys costs one
// list request, not a bucket-wide scan.
func (s *S3Store) Keys(ctx context.Context) (it store.KeyIterator, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Keys", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	return &listKeyIterator{
		ctx:       ctx,
		store:     s,
		paginator: paginator,
	}, nil
}

// listKeyIterator walks ListObjectsV2 pages on demand.
type listKeyIterator struct {
	ctx       context.Context
	store     *S3Store
	paginator *s3.ListObjectsV2Paginator
	batch     []string
	key       string
	err       error
	closed    bool
}

func (it *listKeyIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}

	for len(it.batch) == 0 {
		if !it.paginator.HasMorePages() {
			return false
		}

		page, err := it.paginator.NextPage(it.ctx)
		if err != nil {
			it.err = fmt.Errorf("failed to list objects: %w", err)
			return false
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			it.batch = append(it.batch, it.store.itemKey(*obj.Key))
		}
	}

	it.key = it.batch[0]
	it.batch = it.batch[1:]
	return true
}

func (it *listKeyIterator) Key() string { return it.key }

func (it *listKeyIterator) Err() error { return it.err }

func (it *listKeyIterator) Close() error {
	it.closed = true
	it.batch = nil
	return nil
}
