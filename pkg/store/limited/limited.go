// Package limited wraps a store with token bucket rate limiting.
//
// Backends with per-request billing (S3) or shared disks benefit from a cap
// on sustained operation rate. The wrapper delays over-limit calls instead
// of rejecting them, so callers see latency rather than errors.
package limited

import (
	"context"
	"fmt"

	"github.com/shelf-storage/shelf/internal/ratelimiter"
	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/store"
)

// LimitedStore throttles every item operation of an underlying store.
//
// Open and Close are never throttled; lifecycle management should not
// compete with traffic for tokens.
type LimitedStore struct {
	inner   store.Store
	limiter *ratelimiter.RateLimiter
}

// Config contains configuration for creating a LimitedStore.
type Config struct {
	// OperationsPerSecond is the sustained operation rate. 0 means unlimited.
	OperationsPerSecond uint

	// Burst is the bucket capacity; short spikes up to Burst operations pass
	// without delay. Defaults to 2x OperationsPerSecond.
	Burst uint
}

// NewLimitedStore wraps inner with the configured rate limit.
func NewLimitedStore(inner store.Store, cfg Config) (*LimitedStore, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner store is required")
	}

	burst := cfg.Burst
	if burst == 0 {
		burst = cfg.OperationsPerSecond * 2
	}

	return &LimitedStore{
		inner:   inner,
		limiter: ratelimiter.New(cfg.OperationsPerSecond, burst),
	}, nil
}

func (s *LimitedStore) Open(ctx context.Context) error {
	return s.inner.Open(ctx)
}

func (s *LimitedStore) Close() error {
	return s.inner.Close()
}

func (s *LimitedStore) Get(ctx context.Context, key string) (item.Item, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, key)
}

func (s *LimitedStore) Peek(ctx context.Context, key string) (item.Item, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Peek(ctx, key)
}

func (s *LimitedStore) Put(ctx context.Context, key string, it item.Item) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.inner.Put(ctx, key, it)
}

func (s *LimitedStore) Delete(ctx context.Context, key string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.inner.Delete(ctx, key)
}

func (s *LimitedStore) Flush(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.inner.Flush(ctx)
}

func (s *LimitedStore) Size(ctx context.Context, key string) (uint64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return s.inner.Size(ctx, key)
}

func (s *LimitedStore) TotalSize(ctx context.Context) (uint64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return s.inner.TotalSize(ctx)
}

// Keys throttles the enumeration start; iteration itself is driven by the
// consumer and paced by the underlying backend.
func (s *LimitedStore) Keys(ctx context.Context) (store.KeyIterator, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Keys(ctx)
}
