// Package ratelimit provides the local token bucket the LLM client uses to
// throttle upstream calls, independent of any retry/backoff policy.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Bucket wraps golang.org/x/time/rate.Limiter with the (rate, per-interval)
// vocabulary the LLM client spec uses.
type Bucket struct {
	limiter *rate.Limiter
}

// New creates a bucket that allows `burst` tokens immediately and refills at
// `count` tokens per `interval` thereafter.
func New(count int, interval time.Duration, burst int) *Bucket {
	if count <= 0 {
		count = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	if burst <= 0 {
		burst = count
	}
	r := rate.Limit(float64(count) / interval.Seconds())
	return &Bucket{limiter: rate.NewLimiter(r, burst)}
}

// Unlimited returns a bucket that never blocks, used when no rate limit is
// configured.
func Unlimited() *Bucket {
	return &Bucket{limiter: rate.NewLimiter(rate.Inf, 1)}
}

// Acquire blocks until a single token is available or ctx is cancelled.
func (b *Bucket) Acquire(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// TryAcquire attempts to take a token without blocking.
func (b *Bucket) TryAcquire() bool {
	return b.limiter.Allow()
}
