// Package badger implements the item store contract on BadgerDB.
//
// This is the database-backed adapter for deployments that want item
// persistence with crash recovery (WAL-based) without managing a directory
// of loose files. One badger key per item key; the value is the same
// normalized JSON encoding the filesystem adapter writes, so sizes agree
// across backends.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
)

// BadgerStore implements store.Store using an embedded BadgerDB.
//
// Thread Safety:
// BadgerDB transactions provide the isolation; the store adds no locking of
// its own. Concurrent puts to one key resolve last-writer-wins like every
// other adapter.
type BadgerStore struct {
	db       *badger.DB
	inMemory bool
	metrics  store.Metrics
}

// Config contains configuration for creating a BadgerStore.
type Config struct {
	// Path is the directory where BadgerDB stores its files (value log,
	// LSM tree). Required unless InMemory is set.
	Path string

	// InMemory runs BadgerDB without touching disk. Used by tests and
	// ephemeral deployments.
	InMemory bool

	// Metrics receives per-operation observations. Nil means no collection.
	Metrics store.Metrics
}

// NewBadgerStore opens (creating if needed) a BadgerDB-backed item store.
//
// Options are tuned for the item workload: small point reads and writes
// plus occasional full scans for aggregates. Compression is off (items are
// small JSON documents) and badger's own logging is reduced to warnings.
func NewBadgerStore(ctx context.Context, cfg Config) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger store: path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", cfg.Path, err)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = store.NopMetrics()
	}

	return &BadgerStore{
		db:       db,
		inMemory: cfg.InMemory,
		metrics:  metrics,
	}, nil
}

// Open implements store.Store; the database is already open after
// construction.
func (s *BadgerStore) Open(ctx context.Context) error {
	return ctx.Err()
}

// Close closes the underlying database. After Close the store must not be
// used.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}

// Flush syncs badger's writes to disk.
func (s *BadgerStore) Flush(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Flush", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	if s.inMemory {
		return nil
	}
	if err = s.db.Sync(); err != nil {
		return fmt.Errorf("failed to sync badger database: %w", err)
	}
	return nil
}

// Get returns the item stored under key, creating it on a miss.
func (s *BadgerStore) Get(ctx context.Context, key string) (it item.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Get", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	it, err = s.peek(key)
	if err == nil {
		return it, nil
	}
	if !errors.Is(err, store.ErrItemNotFound) {
		return nil, err
	}

	created := item.New()
	if err = s.put(key, created); err != nil {
		return nil, err
	}
	return created.Normalize(key), nil
}

// Peek returns the item stored under key, failing on a miss.
func (s *BadgerStore) Peek(ctx context.Context, key string) (it item.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Peek", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	return s.peek(key)
}

func (s *BadgerStore) peek(key string) (item.Item, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = entry.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
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

// Put persists the normalized item under key, replacing any previous value.
func (s *BadgerStore) Put(ctx context.Context, key string, it item.Item) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Put", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	return s.put(key, it)
}

func (s *BadgerStore) put(key string, it item.Item) error {
	data, err := it.Normalize(key).Marshal()
	if err != nil {
		return fmt.Errorf("item %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write item: %w", err)
	}
	return nil
}

// Delete removes the item stored under key; absence is success (badger's
// delete of a missing key succeeds).
func (s *BadgerStore) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Delete", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Size returns the byte length of the stored encoding for key.
func (s *BadgerStore) Size(ctx context.Context, key string) (n uint64, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Size", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		n = uint64(entry.ValueSize())
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, fmt.Errorf("item %s: %w", key, store.ErrItemNotFound)
		}
		return 0, fmt.Errorf("failed to read item size: %w", err)
	}
	return n, nil
}

// TotalSize sums the stored encoding lengths over every key. Values are not
// prefetched; the scan reads only LSM metadata plus value sizes.
func (s *BadgerStore) TotalSize(ctx context.Context) (n uint64, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("TotalSize", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		iter := txn.NewIterator(opts)
		defer iter.Close()

		count := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if count%100 == 0 {
				if cerr := ctx.Err(); cerr != nil {
					return cerr
				}
			}
			count++
			n += uint64(iter.Item().ValueSize())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Keys returns an iterator over every key present at call time.
//
// The iterator holds a read transaction until closed, so consumers see a
// consistent snapshot; writes issued after the call do not appear in it.
func (s *BadgerStore) Keys(ctx context.Context) (it store.KeyIterator, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("Keys", time.Since(start), err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	txn := s.db.NewTransaction(false)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false

	iter := txn.NewIterator(opts)
	iter.Rewind()

	return &badgerKeyIterator{txn: txn, iter: iter}, nil
}

// badgerKeyIterator walks a read transaction's key space.
type badgerKeyIterator struct {
	txn  *badger.Txn
	iter *badger.Iterator
	key  string
}

func (it *badgerKeyIterator) Next() bool {
	if it.iter == nil || !it.iter.Valid() {
		return false
	}
	it.key = string(it.iter.Item().KeyCopy(nil))
	it.iter.Next()
	return true
}

func (it *badgerKeyIterator) Key() string { return it.key }

func (it *badgerKeyIterator) Err() error { return nil }

func (it *badgerKeyIterator) Close() error {
	if it.iter == nil {
		return nil
	}
	it.iter.Close()
	it.txn.Discard()
	it.iter = nil
	it.txn = nil
	return nil
}
