package fs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
)

// Get returns the item stored under key, creating it on a miss.
//
// If a file exists for the key its contents are read and decoded exactly as
// Peek would. If not, a fresh empty item is persisted under the key first
// and returned in its persisted form (fskey set). Callers therefore always
// receive a usable item; absence is handled here, not by every caller.
//
// Any read or write failure on either branch is surfaced unchanged; there is
// no retry.
func (s *FileStore) Get(ctx context.Context, key string) (it item.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Get", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	if _, serr := os.Stat(path); serr != nil {
		if !os.IsNotExist(serr) {
			err = fmt.Errorf("failed to stat item: %w", serr)
			return nil, err
		}

		// Miss: establish the file and its derived fields via put.
		created := item.New()
		if err = s.put(ctx, key, created); err != nil {
			return nil, err
		}
		return created.Normalize(key), nil
	}

	return s.peek(ctx, key, path)
}

// Peek returns the item stored under key without creating anything.
//
// Fails with store.ErrItemNotFound if no file exists for the key and with
// store.ErrMalformedItem if the file's contents are not valid JSON.
func (s *FileStore) Peek(ctx context.Context, key string) (it item.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Peek", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	return s.peek(ctx, key, path)
}

// peek reads and decodes the file at path. Shared by Get and Peek.
func (s *FileStore) peek(_ context.Context, key, path string) (item.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("item %s: %w", key, store.ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to read item: %w", err)
	}

	it, err := item.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w: %v", key, store.ErrMalformedItem, err)
	}

	return it, nil
}

// Size returns the byte length of the file stored for key.
//
// Absence is an error here (store.ErrItemNotFound): unlike Get, Size does
// not tolerate a miss; callers must know the key exists.
func (s *FileStore) Size(ctx context.Context, key string) (n uint64, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Size", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	path, err := s.keyPath(key)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("item %s: %w", key, store.ErrItemNotFound)
		}
		return 0, fmt.Errorf("failed to stat item: %w", err)
	}

	return uint64(info.Size()), nil
}
