// Package fs implements the item store contract on the local filesystem.
//
// Each key maps to exactly one file directly under a configured root
// directory, named as the key itself; no subdirectory sharding. The file
// holds the item's UTF-8 JSON encoding, including the adapter-injected
// fskey field. The item's fskey is a digest of the key stored inside the
// document; the filename stays the raw key.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shelf-storage/shelf/pkg/store"
)

// stagingDir is the subdirectory under the storage root where writes are
// staged before being renamed into place. Key enumeration and size
// aggregation skip directories, so staged files are never visible as items.
const stagingDir = ".tmp"

// FileStore implements store.Store using one file per key.
//
// Thread Safety:
// The underlying filesystem operations are thread-safe at the OS level, but
// the store performs no locking between operations on the same key.
// Writes are staged and renamed into place, so readers never observe a
// partially written file; concurrent puts to one key race with
// last-writer-wins.
type FileStore struct {
	root    string
	metrics store.Metrics
}

// Config contains configuration for creating a FileStore.
type Config struct {
	// Path is the storage root. Created (including parents) if absent.
	Path string

	// Metrics receives per-operation observations. Nil means no collection.
	Metrics store.Metrics
}

// NewFileStore creates a filesystem-backed item store rooted at cfg.Path.
//
// The root is created with permissions 0755 if it does not exist, and must
// be a directory: a path that exists as a regular file, or that cannot be
// created, is a construction error and the store is unusable.
func NewFileStore(ctx context.Context, cfg Config) (*FileStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("storage root path is required")
	}

	if err := os.MkdirAll(filepath.Join(cfg.Path, stagingDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", cfg.Path)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = store.NopMetrics()
	}

	return &FileStore{
		root:    cfg.Path,
		metrics: metrics,
	}, nil
}

// keyPath returns the file path for a key after validating it.
//
// Keys are used verbatim as filenames, so anything that could escape the
// storage root or is not representable as a single path component is
// rejected with store.ErrInvalidKey rather than silently mapped.
func (s *FileStore) keyPath(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, key), nil
}

func validateKey(key string) error {
	switch {
	case key == "", strings.HasPrefix(key, "."):
		// Dot-prefixed names are reserved for the store's own bookkeeping
		// (the staging directory); this also covers "." and "..".
		return fmt.Errorf("key %q: %w", key, store.ErrInvalidKey)
	case strings.ContainsAny(key, `/\`), strings.ContainsRune(key, 0):
		return fmt.Errorf("key %q: %w", key, store.ErrInvalidKey)
	}
	return nil
}

// Open implements store.Store. The filesystem adapter holds no handle or
// lock that requires acquisition, so this always succeeds.
func (s *FileStore) Open(ctx context.Context) error {
	return ctx.Err()
}

// Close implements store.Store. Nothing is held open between operations.
func (s *FileStore) Close() error {
	return nil
}

// Flush implements store.Store. The adapter performs no buffering: every put
// reaches the filesystem before returning, so there is never work to flush.
func (s *FileStore) Flush(ctx context.Context) error {
	return ctx.Err()
}
