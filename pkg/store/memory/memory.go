// Package memory implements the item store contract with in-process storage.
//
// Items are held as their persisted JSON encodings in a map, so Size and
// TotalSize report exactly the byte lengths a file-backed store would. The
// store is volatile: everything is lost when the process exits. It targets
// testing, development, and ephemeral deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
)

// MemoryStore implements store.Store using a mutex-guarded map.
//
// All operations are protected by a sync.RWMutex: concurrent readers are
// allowed, writes are exclusive. As with every adapter, there is no
// per-key arbitration beyond that: concurrent puts to one key resolve
// last-writer-wins.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string][]byte
	metrics store.Metrics
}

// Config contains configuration for creating a MemoryStore.
type Config struct {
	// Metrics receives per-operation observations. Nil means no collection.
	Metrics store.Metrics
}

// NewMemoryStore creates an empty in-memory item store.
func NewMemoryStore(ctx context.Context, cfg Config) (*MemoryStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = store.NopMetrics()
	}

	return &MemoryStore{
		data:    make(map[string][]byte),
		metrics: metrics,
	}, nil
}

// Open implements store.Store; the map needs no acquisition.
func (s *MemoryStore) Open(ctx context.Context) error {
	return ctx.Err()
}

// Close implements store.Store. Contents are deliberately left in place so
// a close/reopen cycle inside one process behaves like the other no-op
// lifecycle adapters.
func (s *MemoryStore) Close() error {
	return nil
}

// Flush implements store.Store; writes land in the map synchronously.
func (s *MemoryStore) Flush(ctx context.Context) error {
	return ctx.Err()
}

// Get returns the item stored under key, creating it on a miss.
func (s *MemoryStore) Get(ctx context.Context, key string) (it item.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Get", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()

	if ok {
		return s.decode(key, data)
	}

	created := item.New()
	if err = s.put(key, created); err != nil {
		return nil, err
	}
	return created.Normalize(key), nil
}

// Peek returns the item stored under key, failing on a miss.
func (s *MemoryStore) Peek(ctx context.Context, key string) (it item.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Peek", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("item %s: %w", key, store.ErrItemNotFound)
	}

	return s.decode(key, data)
}

func (s *MemoryStore) decode(key string, data []byte) (item.Item, error) {
	it, err := item.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w: %v", key, store.ErrMalformedItem, err)
	}
	return it, nil
}

// Put persists the normalized item under key, replacing any previous value.
func (s *MemoryStore) Put(ctx context.Context, key string, it item.Item) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Put", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	return s.put(key, it)
}

func (s *MemoryStore) put(key string, it item.Item) error {
	data, err := it.Normalize(key).Marshal()
	if err != nil {
		return fmt.Errorf("item %s: %w", key, err)
	}

	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

// Delete removes the item stored under key; absence is success.
func (s *MemoryStore) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Delete", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Size returns the byte length of the persisted encoding for key.
func (s *MemoryStore) Size(ctx context.Context, key string) (n uint64, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Size", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("item %s: %w", key, store.ErrItemNotFound)
	}

	return uint64(len(data)), nil
}

// TotalSize returns the summed byte length of every stored encoding.
func (s *MemoryStore) TotalSize(ctx context.Context) (n uint64, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("TotalSize", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total uint64
	for _, data := range s.data {
		total += uint64(len(data))
	}
	return total, nil
}

// Keys returns an iterator over a snapshot of the keys present at call time.
//
// The snapshot decouples the iterator from later writes: a sequence started
// before a put or delete is unaffected by it, and a fresh call reflects the
// new contents.
func (s *MemoryStore) Keys(ctx context.Context) (it store.KeyIterator, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Keys", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	return &sliceKeyIterator{keys: keys}, nil
}

// sliceKeyIterator yields keys from a point-in-time snapshot.
type sliceKeyIterator struct {
	keys []string
	key  string
}

func (it *sliceKeyIterator) Next() bool {
	if len(it.keys) == 0 {
		return false
	}
	it.key = it.keys[0]
	it.keys = it.keys[1:]
	return true
}

func (it *sliceKeyIterator) Key() string  { return it.key }
func (it *sliceKeyIterator) Err() error   { return nil }
func (it *sliceKeyIterator) Close() error { return nil }
