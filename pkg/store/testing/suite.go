// Package testing provides a conformance test suite for store.Store
// implementations.
//
// The suite tests the interface contract, not implementation details, so it
// is reusable across backends (filesystem, memory, badger, S3). Each adapter
// package runs it against a fresh store per test:
//
//	func TestFileStore(t *testing.T) {
//	    suite := &storetesting.Suite{
//	        NewStore: func(t *testing.T) store.Store {
//	            s, err := fs.NewFileStore(context.Background(), fs.Config{Path: t.TempDir()})
//	            require.NoError(t, err)
//	            return s
//	        },
//	    }
//	    suite.Run(t)
//	}
package testing

import (
	"context"
	"testing"

	"github.com/shelf-storage/shelf/pkg/store"
)

// Suite exercises the full store.Store contract.
type Suite struct {
	// NewStore returns a fresh, empty store for each test, ensuring test
	// isolation. The suite never calls Close; register cleanup with
	// t.Cleanup if the backend needs it.
	NewStore func(t *testing.T) store.Store
}

// Run executes every test in the suite.
func (s *Suite) Run(t *testing.T) {
	t.Run("Lifecycle", s.runLifecycleTests)
	t.Run("GetPeek", s.runGetPeekTests)
	t.Run("Put", s.runPutTests)
	t.Run("Delete", s.runDeleteTests)
	t.Run("Size", s.runSizeTests)
	t.Run("Keys", s.runKeyTests)
	t.Run("Scenarios", s.runScenarioTests)
}

func testContext() context.Context {
	return context.Background()
}
