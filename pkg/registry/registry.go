// Package registry manages named item stores.
//
// A deployment typically configures several stores (a local cache store, a
// durable S3 store) and refers to them by name. The registry provides
// thread-safe registration and lookup, plus collective lifecycle management.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shelf-storage/shelf/pkg/store"
)

// Registry holds all named stores.
//
// Example usage:
//
//	reg := registry.NewRegistry()
//	reg.Register("local", fileStore)
//	reg.Register("archive", s3Store)
//
//	st, _ := reg.Get("local")
//	it, _ := st.Get(ctx, "user:42")
type Registry struct {
	mu     sync.RWMutex
	stores map[string]store.Store
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]store.Store),
	}
}

// Register adds a named store to the registry.
// Returns an error if a store with the same name already exists.
func (r *Registry) Register(name string, st store.Store) error {
	if st == nil {
		return fmt.Errorf("cannot register nil store")
	}
	if name == "" {
		return fmt.Errorf("cannot register store with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("store %q already registered", name)
	}

	r.stores[name] = st
	return nil
}

// Get returns the store registered under name.
func (r *Registry) Get(name string) (store.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, exists := r.stores[name]
	if !exists {
		return nil, fmt.Errorf("store %q not found", name)
	}
	return st, nil
}

// Names returns the names of all registered stores, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered stores.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// OpenAll opens every registered store. The first failure aborts and is
// returned; stores opened before the failure stay open.
func (r *Registry) OpenAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, st := range r.stores {
		if err := st.Open(ctx); err != nil {
			return fmt.Errorf("failed to open store %q: %w", name, err)
		}
	}
	return nil
}

// FlushAll flushes every registered store. Failures are logged and the last
// one is returned, so one misbehaving store does not block the rest.
func (r *Registry) FlushAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lastErr error
	for name, st := range r.stores {
		if err := st.Flush(ctx); err != nil {
			log.Error().Err(err).Str("store", name).Msg("failed to flush store")
			lastErr = fmt.Errorf("failed to flush store %q: %w", name, err)
		}
	}
	return lastErr
}

// CloseAll closes every registered store and empties the registry. All
// stores are attempted even when some fail; the last failure is returned.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for name, st := range r.stores {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Str("store", name).Msg("failed to close store")
			lastErr = fmt.Errorf("failed to close store %q: %w", name, err)
		}
	}
	r.stores = make(map[string]store.Store)
	return lastErr
}
