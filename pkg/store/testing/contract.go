package testing

import (
	"errors"
	"sort"
	"testing"

	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Lifecycle
// ============================================================================

func (s *Suite) runLifecycleTests(t *testing.T) {
	t.Run("Open_Succeeds", func(t *testing.T) {
		st := s.NewStore(t)
		require.NoError(t, st.Open(testContext()))
	})

	t.Run("Flush_AlwaysSucceeds", func(t *testing.T) {
		st := s.NewStore(t)
		require.NoError(t, st.Flush(testContext()))

		mustPut(t, st, "flushed", item.Item{"n": 1})
		require.NoError(t, st.Flush(testContext()))
	})
}

// ============================================================================
// Get / Peek
// ============================================================================

func (s *Suite) runGetPeekTests(t *testing.T) {
	t.Run("Get_CreatesOnMiss", func(t *testing.T) {
		st := s.NewStore(t)

		got := mustGet(t, st, "fresh")
		assertNormalized(t, got, "fresh")

		// The miss must have persisted the item: a read-only peek now hits.
		peeked := mustPeek(t, st, "fresh")
		assert.Equal(t, got, peeked, "get-created item must match a subsequent peek")
	})

	t.Run("Get_ReturnsExisting", func(t *testing.T) {
		st := s.NewStore(t)
		mustPut(t, st, "existing", item.Item{"foo": "bar"})

		got := mustGet(t, st, "existing")
		assert.Equal(t, "bar", got["foo"])
		assertNormalized(t, got, "existing")
	})

	t.Run("Peek_MissFails", func(t *testing.T) {
		st := s.NewStore(t)

		_, err := st.Peek(testContext(), "nothing-here")
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrItemNotFound),
			"expected ErrItemNotFound, got %v", err)
	})

	t.Run("Peek_DoesNotCreate", func(t *testing.T) {
		st := s.NewStore(t)

		_, err := st.Peek(testContext(), "phantom")
		require.Error(t, err)

		// Still a miss afterwards.
		_, err = st.Peek(testContext(), "phantom")
		assert.True(t, errors.Is(err, store.ErrItemNotFound))
		assert.Empty(t, collectKeys(t, st))
	})
}

// ============================================================================
// Put
// ============================================================================

func (s *Suite) runPutTests(t *testing.T) {
	t.Run("Put_SetsFskeyAndStripsShard", func(t *testing.T) {
		st := s.NewStore(t)

		in := item.Item{"foo": 1, item.ShardField: "ZZZ"}
		mustPut(t, st, "x", in)

		got := mustPeek(t, st, "x")
		assertNormalized(t, got, "x")
		assert.Equal(t, float64(1), got["foo"])

		// The caller-supplied item is left alone.
		assert.Equal(t, "ZZZ", in[item.ShardField])
	})

	t.Run("Put_Overwrites", func(t *testing.T) {
		st := s.NewStore(t)

		mustPut(t, st, "k", item.Item{"generation": "old", "stale": true})
		mustPut(t, st, "k", item.Item{"generation": "new"})

		got := mustPeek(t, st, "k")
		assert.Equal(t, "new", got["generation"])
		assert.NotContains(t, got, "stale", "overwrite must replace the whole item")
	})

	t.Run("Put_RoundTripsNestedFields", func(t *testing.T) {
		st := s.NewStore(t)

		in := item.Item{
			"contracts": map[string]any{
				"node-a": map[string]any{"duration": float64(86400), "renewals": float64(2)},
			},
			"trees": []any{"aaa", "bbb"},
			"audit": map[string]any{"challenges": []any{float64(1), float64(2), float64(3)}},
		}
		mustPut(t, st, "nested", in)

		got := mustPeek(t, st, "nested")
		assert.Equal(t, in["contracts"], got["contracts"])
		assert.Equal(t, in["trees"], got["trees"])
		assert.Equal(t, in["audit"], got["audit"])
	})
}

// ============================================================================
// Delete
// ============================================================================

func (s *Suite) runDeleteTests(t *testing.T) {
	t.Run("Delete_RemovesItem", func(t *testing.T) {
		st := s.NewStore(t)
		mustPut(t, st, "doomed", item.Item{"x": 1})

		require.NoError(t, st.Delete(testContext(), "doomed"))

		_, err := st.Peek(testContext(), "doomed")
		assert.True(t, errors.Is(err, store.ErrItemNotFound))
	})

	t.Run("Delete_Idempotent", func(t *testing.T) {
		st := s.NewStore(t)
		mustPut(t, st, "twice", item.Item{})

		require.NoError(t, st.Delete(testContext(), "twice"))
		require.NoError(t, st.Delete(testContext(), "twice"),
			"second delete must also succeed")
		assert.Empty(t, collectKeys(t, st))
	})

	t.Run("Delete_MissingKeySucceeds", func(t *testing.T) {
		st := s.NewStore(t)
		require.NoError(t, st.Delete(testContext(), "never-existed"))
		assert.Empty(t, collectKeys(t, st))
	})
}

// ============================================================================
// Size
// ============================================================================

func (s *Suite) runSizeTests(t *testing.T) {
	t.Run("Size_MissFails", func(t *testing.T) {
		st := s.NewStore(t)

		_, err := st.Size(testContext(), "absent")
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrItemNotFound))
	})

	t.Run("TotalSize_EmptyStore", func(t *testing.T) {
		st := s.NewStore(t)

		total, err := st.TotalSize(testContext())
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("TotalSize_EqualsSumOfSizes", func(t *testing.T) {
		st := s.NewStore(t)

		mustPut(t, st, "k1", item.Item{"payload": "small"})
		mustPut(t, st, "k2", item.Item{"payload": "a somewhat longer payload body"})
		mustPut(t, st, "k3", item.Item{})

		var sum uint64
		for _, key := range []string{"k1", "k2", "k3"} {
			sum += mustSize(t, st, key)
		}

		total, err := st.TotalSize(testContext())
		require.NoError(t, err)
		assert.Equal(t, sum, total)
	})

	t.Run("TotalSize_RecomputedAfterDelete", func(t *testing.T) {
		st := s.NewStore(t)

		mustPut(t, st, "keep", item.Item{"a": 1})
		mustPut(t, st, "drop", item.Item{"b": 2})
		require.NoError(t, st.Delete(testContext(), "drop"))

		total, err := st.TotalSize(testContext())
		require.NoError(t, err)
		assert.Equal(t, mustSize(t, st, "keep"), total,
			"aggregate must reflect disk truth, not a stale cache")
	})
}

// ============================================================================
// Keys
// ============================================================================

func (s *Suite) runKeyTests(t *testing.T) {
	t.Run("Keys_EnumeratesExactly", func(t *testing.T) {
		st := s.NewStore(t)

		want := []string{"alpha", "beta", "gamma", "delta"}
		for _, key := range want {
			mustPut(t, st, key, item.Item{"k": key})
		}

		got := collectKeys(t, st)
		sort.Strings(got)
		sort.Strings(want)
		assert.Equal(t, want, got, "enumeration must be complete with no duplicates")
	})

	t.Run("Keys_EmptyStore", func(t *testing.T) {
		st := s.NewStore(t)

		it, err := st.Keys(testContext())
		require.NoError(t, err)
		defer it.Close()

		assert.False(t, it.Next(), "empty store must terminate immediately")
		assert.NoError(t, it.Err())
	})

	t.Run("Keys_FreshSequencePerCall", func(t *testing.T) {
		st := s.NewStore(t)
		mustPut(t, st, "first", item.Item{})

		assert.Equal(t, []string{"first"}, collectKeys(t, st))

		// A later call reflects the store's current contents.
		mustPut(t, st, "second", item.Item{})
		got := collectKeys(t, st)
		sort.Strings(got)
		assert.Equal(t, []string{"first", "second"}, got)
	})
}

// ============================================================================
// End-to-end scenarios
// ============================================================================

func (s *Suite) runScenarioTests(t *testing.T) {
	t.Run("EmptyStore_GetThenAggregate", func(t *testing.T) {
		st := s.NewStore(t)

		created := mustGet(t, st, "a")
		assertNormalized(t, created, "a")

		total, err := st.TotalSize(testContext())
		require.NoError(t, err)
		assert.Equal(t, mustSize(t, st, "a"), total)

		assert.Equal(t, []string{"a"}, collectKeys(t, st))
	})

	t.Run("PutPeekDeleteCycle", func(t *testing.T) {
		st := s.NewStore(t)

		mustPut(t, st, "cycle", item.Item{"foo": 1, item.ShardField: "raw-bytes"})
		got := mustPeek(t, st, "cycle")
		assertNormalized(t, got, "cycle")

		require.NoError(t, st.Delete(testContext(), "cycle"))
		_, err := st.Peek(testContext(), "cycle")
		assert.True(t, errors.Is(err, store.ErrItemNotFound))
		assert.Empty(t, collectKeys(t, st))
	})
}
