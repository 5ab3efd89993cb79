package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
	storetesting "github.com/shelf-storage/shelf/pkg/store/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryStoreContract runs the full store conformance suite against the
// in-memory implementation.
func TestMemoryStoreContract(t *testing.T) {
	suite := &storetesting.Suite{
		NewStore: func(t *testing.T) store.Store {
			s, err := NewMemoryStore(context.Background(), Config{})
			require.NoError(t, err)
			return s
		},
	}
	suite.Run(t)
}

func TestKeysSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(ctx, Config{})
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "before", item.Item{}))

	it, err := s.Keys(ctx)
	require.NoError(t, err)
	defer it.Close()

	// A write after the iterator was created does not leak into it.
	require.NoError(t, s.Put(ctx, "after", item.Item{}))

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"before"}, keys)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(ctx, Config{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, gerr := s.Get(ctx, "shared")
			assert.NoError(t, gerr)
			_, terr := s.TotalSize(ctx)
			assert.NoError(t, terr)
		}()
	}
	wg.Wait()

	got, err := s.Peek(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, item.Fskey("shared"), got.Fskey())
}
