package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelf-storage/shelf/pkg/store"
	storetesting "github.com/shelf-storage/shelf/pkg/store/testing"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	s, err := NewBadgerStore(context.Background(), Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_Contract(t *testing.T) {
	suite := storetesting.Suite{
		NewStore: func(t *testing.T) store.Store {
			return newTestStore(t)
		},
	}
	suite.Run(t)
}

func TestNewBadgerStore_RequiresPath(t *testing.T) {
	_, err := NewBadgerStore(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestNewBadgerStore_OnDisk(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	s, err := NewBadgerStore(ctx, Config{Path: dir})
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "persisted", map[string]any{"field": "value"}))
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, s.Close())

	// Reopen: the item must survive a close/open cycle.
	s, err = NewBadgerStore(ctx, Config{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	it, err := s.Peek(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "value", it["field"])
}

func TestBadgerStore_KeysSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "before", map[string]any{}))

	iter, err := s.Keys(ctx)
	require.NoError(t, err)
	defer iter.Close()

	// A write after the iterator is created must not leak into it.
	require.NoError(t, s.Put(ctx, "after", map[string]any{}))

	var keys []string
	for iter.Next() {
		keys = append(keys, iter.Key())
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, []string{"before"}, keys)
}

func TestBadgerStore_IteratorCloseReleasesTransaction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "k", map[string]any{}))

	iter, err := s.Keys(ctx)
	require.NoError(t, err)
	require.NoError(t, iter.Close())
	require.NoError(t, iter.Close())

	assert.False(t, iter.Next())
}
