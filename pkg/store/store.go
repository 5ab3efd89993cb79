// Package store defines the capability contract implemented by every item
// storage adapter.
package store

import (
	"context"

	"github.com/shelf-storage/shelf/pkg/item"
)

// Store provides key-addressed persistence of JSON items.
//
// This interface abstracts the underlying storage mechanism (local
// filesystem, embedded database, object storage, memory) behind one fixed
// capability set. The hosting node selects a concrete implementation by
// configuration; callers never depend on which backend is wired in.
//
// Semantics shared by all implementations:
//
//   - Get is get-or-create: a miss persists a fresh empty item under the key
//     and returns it, so callers always receive a usable item. Peek is the
//     read-only counterpart and fails on a miss with ErrItemNotFound.
//   - Put normalizes the item before persisting (shard stripped, fskey set
//     to the RIPEMD-160 hex digest of the key; see package item) and then
//     replaces whatever was stored. Last writer wins; there is no version
//     check and no cross-key atomicity.
//   - Delete is idempotent: deleting an absent key succeeds.
//   - Size reports the byte length of one key's persisted encoding and fails
//     with ErrItemNotFound on a miss. TotalSize reports the sum over every
//     stored key, recomputed from the backend on each call; no cached total
//     is trusted between calls.
//   - Keys returns a fresh, finite, pull-based iterator over the keys
//     present at call time. Iterators from separate calls are independent.
//
// Concurrency:
// Implementations are safe for concurrent use, but provide no mutual
// exclusion between operations on the same key. Two concurrent puts race at
// the backend with whichever write lands last winning; two concurrent gets
// on an absent key may both create, the second create being an overwrite
// rather than an error. Every operation checks its context before touching
// the backend; there is no cancellation of an operation already in flight.
//
// Error convention:
// Failures are returned to the immediate caller wrapped with key context,
// matchable with errors.Is against the sentinels in this package. Nothing is
// retried or swallowed inside an adapter.
type Store interface {
	// Open prepares the store for use. Adapters that hold no handle or
	// connection implement this as an immediate success.
	Open(ctx context.Context) error

	// Close releases whatever the adapter holds. After Close the store must
	// not be used.
	Close() error

	// Get returns the item stored under key, creating and persisting an
	// empty item first if the key has never been written.
	Get(ctx context.Context, key string) (item.Item, error)

	// Peek returns the item stored under key without creating anything.
	// Returns ErrItemNotFound on a miss and ErrMalformedItem if the stored
	// bytes are not valid JSON.
	Peek(ctx context.Context, key string) (item.Item, error)

	// Put persists the item under key, replacing any previous value. The
	// caller's item is not mutated; the persisted form has shard stripped
	// and fskey set.
	Put(ctx context.Context, key string, it item.Item) error

	// Delete removes the item stored under key. Deleting an absent key is a
	// success with no effect.
	Delete(ctx context.Context, key string) error

	// Flush forces buffered writes to stable storage. Adapters that do not
	// buffer implement this as an immediate success.
	Flush(ctx context.Context) error

	// Size returns the byte length of the persisted encoding for key.
	// Unlike Get, absence is an error (ErrItemNotFound): callers use Size
	// only for keys they know exist.
	Size(ctx context.Context, key string) (uint64, error)

	// TotalSize returns the summed byte length of every stored item,
	// recomputed from the backend. For a store holding keys k1..kn it equals
	// Size(k1) + ... + Size(kn).
	TotalSize(ctx context.Context) (uint64, error)

	// Keys returns an iterator over every key present at call time.
	Keys(ctx context.Context) (KeyIterator, error)
}

// KeyIterator is a pull-based sequence of keys.
//
// Consumers advance it one key at a time, so large stores are not
// materialized producer-side:
//
//	it, err := s.Keys(ctx)
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//
//	for it.Next() {
//	    process(it.Key())
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
//
// Iterators are finite and not restartable; call Keys again for a fresh
// sequence reflecting the backend's current contents.
type KeyIterator interface {
	// Next advances to the next key, returning false when the sequence is
	// exhausted or an error occurred.
	Next() bool

	// Key returns the key at the current position. Only valid after a call
	// to Next that returned true.
	Key() string

	// Err returns the error that stopped iteration, or nil after a clean
	// end of sequence.
	Err() error

	// Close releases resources held by the iterator. Safe to call more than
	// once and after exhaustion.
	Close() error
}
