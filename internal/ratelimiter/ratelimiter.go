// Package ratelimiter provides token bucket rate limiting for store
// operations.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate with the semantics shelf needs:
// context-aware waiting, a reject-fast path, and a zero value meaning
// unlimited.
//
// Thread safety: all methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained throughput
// with the given burst capacity. requestsPerSecond of 0 disables limiting.
//
// Burst should typically be >= requestsPerSecond so a full bucket can absorb
// short spikes.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		// rate.Inf has edge cases around Wait; a very large finite rate
		// behaves as unlimited in practice.
		requestsPerSecond = 1_000_000_000
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether one request may proceed right now, consuming a token
// if so. Use this to reject over-limit requests instead of delaying them.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// AllowN consumes n tokens if all are available; otherwise consumes none and
// returns false. Useful when one call fans out into n backend requests.
func (r *RateLimiter) AllowN(n uint) bool {
	return r.limiter.AllowN(time.Now(), int(n))
}

// Tokens returns the current bucket fill, for monitoring.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
