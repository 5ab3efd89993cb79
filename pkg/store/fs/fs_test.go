package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
	storetesting "github.com/shelf-storage/shelf/pkg/store/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileStoreContract runs the full store conformance suite against the
// filesystem implementation.
func TestFileStoreContract(t *testing.T) {
	suite := &storetesting.Suite{
		NewStore: func(t *testing.T) store.Store {
			s, err := NewFileStore(context.Background(), Config{Path: t.TempDir()})
			require.NoError(t, err)
			return s
		},
	}
	suite.Run(t)
}

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewFileStore(context.Background(), Config{Path: root})
	require.NoError(t, err)
	return s, root
}

func TestNewFileStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "store")

	_, err := NewFileStore(context.Background(), Config{Path: root})
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFileStoreRejectsFileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(path, []byte("in the way"), 0644))

	_, err := NewFileStore(context.Background(), Config{Path: path})
	require.Error(t, err, "a root that exists as a regular file must fail construction")
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore(context.Background(), Config{})
	require.Error(t, err)
}

func TestFileNamedExactlyAsKey(t *testing.T) {
	s, root := newTestStore(t)

	require.NoError(t, s.Put(context.Background(), "my-key.json", item.Item{"v": 1}))

	// The filename is the raw key; the fskey digest lives inside the file.
	data, err := os.ReadFile(filepath.Join(root, "my-key.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), item.Fskey("my-key.json"))
}

func TestSizeMatchesFileLength(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "sized", item.Item{"payload": "0123456789"}))

	info, err := os.Stat(filepath.Join(root, "sized"))
	require.NoError(t, err)

	n, err := s.Size(ctx, "sized")
	require.NoError(t, err)
	assert.Equal(t, uint64(info.Size()), n)
}

func TestInvalidKeysRejected(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{
		"",
		".",
		"..",
		".hidden",
		".tmp",
		"../escape",
		"nested/key",
		`back\slash`,
		"nul\x00byte",
	} {
		t.Run(fmt.Sprintf("%q", key), func(t *testing.T) {
			_, err := s.Get(ctx, key)
			assert.True(t, errors.Is(err, store.ErrInvalidKey), "Get(%q): %v", key, err)

			err = s.Put(ctx, key, item.Item{})
			assert.True(t, errors.Is(err, store.ErrInvalidKey), "Put(%q): %v", key, err)

			err = s.Delete(ctx, key)
			assert.True(t, errors.Is(err, store.ErrInvalidKey), "Delete(%q): %v", key, err)

			_, err = s.Size(ctx, key)
			assert.True(t, errors.Is(err, store.ErrInvalidKey), "Size(%q): %v", key, err)
		})
	}
}

func TestPeekMalformedContent(t *testing.T) {
	s, root := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "corrupt"), []byte("{oops"), 0644))

	_, err := s.Peek(context.Background(), "corrupt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrMalformedItem),
		"a present but undecodable file is a parse failure, not a miss: %v", err)
	assert.False(t, errors.Is(err, store.ErrItemNotFound))
}

func TestAggregatesSkipSubdirectories(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "visible", item.Item{"v": 1}))

	// A subdirectory with content inside must not leak into aggregates.
	sub := filepath.Join(root, "subdir")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "hidden"), []byte("xxxxxxxx"), 0644))

	n, err := s.Size(ctx, "visible")
	require.NoError(t, err)

	total, err := s.TotalSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, total, "TotalSize must not descend into subdirectories")

	it, err := s.Keys(ctx)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"visible"}, keys)
}

func TestStagingDirInvisible(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	// A crashed writer can leave a staged file behind; it must never surface
	// as an item.
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tmp", "orphan"), []byte("x"), 0644))
	require.NoError(t, s.Put(ctx, "real", item.Item{}))

	it, err := s.Keys(ctx)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"real"}, keys)
}

func TestKeysBatchedIteration(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	// More keys than one readdir batch, so the iterator has to pull twice.
	want := make([]string, 0, keyBatchSize+10)
	for i := 0; i < keyBatchSize+10; i++ {
		key := fmt.Sprintf("key-%04d", i)
		require.NoError(t, s.Put(ctx, key, item.Item{}))
		want = append(want, key)
	}

	it, err := s.Keys(ctx)
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, it.Key())
	}
	require.NoError(t, it.Err())

	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestKeysCloseEarly(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", item.Item{}))
	require.NoError(t, s.Put(ctx, "b", item.Item{}))

	it, err := s.Keys(ctx)
	require.NoError(t, err)

	require.True(t, it.Next())
	require.NoError(t, it.Close())
	require.NoError(t, it.Close(), "double close must be safe")
	assert.False(t, it.Next(), "a closed iterator must not advance")
}

func TestGetPropagatesContextCancellation(t *testing.T) {
	s, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "whatever")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentGetOnMiss(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	// Both racers may observe the miss and both create; the second create is
	// an overwrite of an identical empty item, never an error.
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.Get(ctx, "contended")
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, <-done)
	}

	got, err := s.Peek(ctx, "contended")
	require.NoError(t, err)
	assert.Equal(t, item.Fskey("contended"), got.Fskey())
}
