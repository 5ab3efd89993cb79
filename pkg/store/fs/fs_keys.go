package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shelf-storage/shelf/pkg/store"
)

// keyBatchSize is how many directory entries each iterator pull reads at
// once. Batching keeps very large stores from being materialized up front
// while amortizing the readdir syscall cost.
const keyBatchSize = 256

// TotalSize returns the summed byte length of every regular file directly
// under the storage root.
//
// Subdirectories are skipped, not descended into. The total is recomputed
// from disk on every call; no cached figure is carried between calls, so the
// result always equals the sum of Size over the keys currently present.
func (s *FileStore) TotalSize(ctx context.Context) (n uint64, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("TotalSize", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("failed to read storage root: %w", err)
	}

	var total uint64
	for i, entry := range entries {
		// Check context periodically on large directories.
		if i%100 == 0 {
			if err = ctx.Err(); err != nil {
				return 0, err
			}
		}

		if entry.IsDir() {
			continue
		}

		info, ierr := entry.Info()
		if ierr != nil {
			// Entry removed between listing and stat: a delete racing the
			// aggregate is not an error, the file simply no longer counts.
			if os.IsNotExist(ierr) {
				continue
			}
			err = fmt.Errorf("failed to stat %s: %w", entry.Name(), ierr)
			return 0, err
		}

		total += uint64(info.Size())
	}

	return total, nil
}

// Keys returns a fresh iterator over the keys present under the storage
// root at call time.
//
// The iterator pulls directory entries in batches, so consumers see the
// first key before the whole directory has been read. Subdirectories are
// skipped. Each call opens its own directory handle; iterators are
// independent and must be closed.
func (s *FileStore) Keys(ctx context.Context) (it store.KeyIterator, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Keys", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.Open(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage root: %w", err)
	}

	return &dirKeyIterator{dir: dir}, nil
}

// dirKeyIterator walks a directory handle batch by batch.
type dirKeyIterator struct {
	dir   *os.File
	batch []os.DirEntry
	pos   int
	key   string
	err   error
	done  bool
}

func (it *dirKeyIterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	for {
		for it.pos < len(it.batch) {
			entry := it.batch[it.pos]
			it.pos++
			if entry.IsDir() {
				continue
			}
			it.key = entry.Name()
			return true
		}

		batch, err := it.dir.ReadDir(keyBatchSize)
		it.batch, it.pos = batch, 0

		if len(batch) == 0 {
			if err != nil && err != io.EOF {
				it.err = fmt.Errorf("failed to read storage root: %w", err)
			}
			it.done = true
			_ = it.Close()
			return false
		}
		// A batch alongside an error is still consumed first; the error
		// resurfaces on the next pull.
	}
}

func (it *dirKeyIterator) Key() string {
	return it.key
}

func (it *dirKeyIterator) Err() error {
	return it.err
}

func (it *dirKeyIterator) Close() error {
	if it.dir == nil {
		return nil
	}
	dir := it.dir
	it.dir = nil
	it.done = true
	return dir.Close()
}
