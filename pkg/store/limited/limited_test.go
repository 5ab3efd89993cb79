package limited

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelf-storage/shelf/pkg/store"
	"github.com/shelf-storage/shelf/pkg/store/memory"
	storetesting "github.com/shelf-storage/shelf/pkg/store/testing"
)

func newTestStore(t *testing.T, cfg Config) *LimitedStore {
	t.Helper()

	inner, err := memory.NewMemoryStore(context.Background(), memory.Config{})
	require.NoError(t, err)

	s, err := NewLimitedStore(inner, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLimitedStore_Contract(t *testing.T) {
	suite := storetesting.Suite{
		NewStore: func(t *testing.T) store.Store {
			// Unlimited: the wrapper must be behaviorally transparent.
			return newTestStore(t, Config{})
		},
	}
	suite.Run(t)
}

func TestNewLimitedStore_RequiresInner(t *testing.T) {
	_, err := NewLimitedStore(nil, Config{})
	require.Error(t, err)
}

func TestLimitedStore_DelaysOverLimitCalls(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Config{OperationsPerSecond: 10, Burst: 1})

	require.NoError(t, s.Put(ctx, "k", map[string]any{}))

	// Bucket is empty; the next call waits ~100ms for a token.
	start := time.Now()
	_, err := s.Peek(ctx, "k")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLimitedStore_WaitRespectsContext(t *testing.T) {
	s := newTestStore(t, Config{OperationsPerSecond: 1, Burst: 1})

	require.NoError(t, s.Put(context.Background(), "k", map[string]any{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Peek(ctx, "k")
	assert.Error(t, err)
}
