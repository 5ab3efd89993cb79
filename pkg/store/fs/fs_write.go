package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/shelf-storage/shelf/pkg/item"
)

// Put persists the item under key, replacing any existing file whole.
//
// The persisted form is the normalized item: the shard field is stripped
// (raw shard bytes never travel through this adapter) and fskey is set to
// the RIPEMD-160 hex digest of the key. The caller's item is not modified.
//
// The replace is atomic from a reader's perspective: the document is staged
// in a scratch file and renamed over the destination, so a concurrent peek
// sees either the old item or the new one, never a torn write. No version
// check is performed and the last writer wins.
func (s *FileStore) Put(ctx context.Context, key string, it item.Item) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Put", time.Since(start), err) }()

	return s.put(ctx, key, it)
}

// put is the unobserved body of Put, shared with Get's create-on-miss path
// so a miss records one Get observation rather than a Get and a Put.
func (s *FileStore) put(ctx context.Context, key string, it item.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	data, err := it.Normalize(key).Marshal()
	if err != nil {
		return fmt.Errorf("item %s: %w", key, err)
	}

	// Stage under a collision-free name, then rename into place. Rename
	// within one filesystem is atomic, so readers never see a partial file.
	tmp := filepath.Join(s.root, stagingDir, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to stage item: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write item: %w", err)
	}

	return nil
}

// Delete removes the file stored for key.
//
// Deleting an absent key is a success with no effect: the desired
// postcondition (no file for the key) already holds.
func (s *FileStore) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Delete", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return nil
}
