package testing

import (
	"testing"

	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustPut persists an item and fails the test if it errors.
func mustPut(t *testing.T, s store.Store, key string, it item.Item) {
	t.Helper()
	require.NoError(t, s.Put(testContext(), key, it), "Put should succeed")
}

// mustGet fetches (or creates) an item and fails the test if it errors.
func mustGet(t *testing.T, s store.Store, key string) item.Item {
	t.Helper()
	it, err := s.Get(testContext(), key)
	require.NoError(t, err, "Get should succeed")
	require.NotNil(t, it)
	return it
}

// mustPeek reads an item and fails the test if it errors.
func mustPeek(t *testing.T, s store.Store, key string) item.Item {
	t.Helper()
	it, err := s.Peek(testContext(), key)
	require.NoError(t, err, "Peek should succeed")
	require.NotNil(t, it)
	return it
}

// mustSize returns the persisted byte length for a key.
func mustSize(t *testing.T, s store.Store, key string) uint64 {
	t.Helper()
	n, err := s.Size(testContext(), key)
	require.NoError(t, err, "Size should succeed")
	return n
}

// collectKeys drains a fresh key iterator into a slice.
func collectKeys(t *testing.T, s store.Store) []string {
	t.Helper()

	it, err := s.Keys(testContext())
	require.NoError(t, err, "Keys should succeed")
	defer func() { assert.NoError(t, it.Close()) }()

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	require.NoError(t, it.Err(), "iteration should end cleanly")
	return keys
}

// assertNormalized checks the persisted-form invariants: fskey set to the
// key's digest, shard absent.
func assertNormalized(t *testing.T, it item.Item, key string) {
	t.Helper()
	assert.Equal(t, item.Fskey(key), it.Fskey(), "fskey mismatch")
	assert.NotContains(t, it, item.ShardField, "shard must not be persisted")
}
