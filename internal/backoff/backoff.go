// Package backoff implements exponential backoff with jitter, shared by the
// LLM client, the bus's retrying send path, and the graph engine's per-node
// retry policy.
package backoff

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy parameterizes exponential backoff: delay(attempt) = min(Max,
// Base*Factor^(attempt-1) * (1 + Jitter*r)) for a random r in [0,1), so the
// jitter term is applied before the Max clamp. Attempt numbers are
// 1-indexed.
type Policy struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// LLMPolicy is the default policy for upstream LLM retries: base 500ms,
// doubling, capped at 20s, with 20% jitter.
func LLMPolicy() Policy {
	return Policy{Base: 500 * time.Millisecond, Max: 20 * time.Second, Factor: 2, Jitter: 0.2}
}

// BusPolicy is the default policy for retrying a bus send against a
// transient backpressure condition: tighter bounds since the caller is
// usually holding an inbound request open.
func BusPolicy() Policy {
	return Policy{Base: 25 * time.Millisecond, Max: 2 * time.Second, Factor: 2, Jitter: 0.1}
}

// NodePolicy is the default policy for graph node execution retries.
func NodePolicy() Policy {
	return Policy{Base: 200 * time.Millisecond, Max: 10 * time.Second, Factor: 2, Jitter: 0.15}
}

// Delay computes the backoff duration for the given attempt using randSrc
// for the jitter term (in [0,1)). Exposed separately from Compute so tests
// can supply a deterministic source.
func Delay(p Policy, attempt int, randSrc float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(p.Base) * math.Pow(p.Factor, float64(attempt-1))
	jittered := base + base*p.Jitter*randSrc
	if max := float64(p.Max); max > 0 && jittered > max {
		jittered = max
	}
	return time.Duration(jittered)
}

// Compute computes the backoff duration for the given attempt using the
// package's non-cryptographic random source for jitter.
func Compute(p Policy, attempt int) time.Duration {
	return Delay(p, attempt, rand.Float64()) // #nosec G404 -- jitter only, not security sensitive
}

// Sleep waits for the backoff duration of attempt, or returns ctx.Err() if
// the context is cancelled first.
func Sleep(ctx context.Context, p Policy, attempt int) error {
	d := Compute(p, attempt)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retryable distinguishes errors worth retrying from fatal ones. Callers
// pass this to Do so that, e.g., a 4xx upstream error stops the loop
// immediately instead of burning through all attempts.
type Retryable func(error) bool

// AlwaysRetry treats every error as retryable.
func AlwaysRetry(error) bool { return true }

// Result carries the outcome of a retried operation.
type Result[T any] struct {
	Value    T
	Attempts int
	LastErr  error
}

// Do runs fn up to maxAttempts times (1-indexed attempt passed in), sleeping
// per Policy between attempts, and stops early when isRetryable reports an
// error is not worth retrying. Context cancellation is checked before every
// attempt and during the sleep.
func Do[T any](ctx context.Context, p Policy, maxAttempts int, isRetryable Retryable, fn func(attempt int) (T, error)) (Result[T], error) {
	var res Result[T]
	if isRetryable == nil {
		isRetryable = AlwaysRetry
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res.Attempts = attempt
		if err := ctx.Err(); err != nil {
			return res, err
		}
		val, err := fn(attempt)
		if err == nil {
			res.Value = val
			return res, nil
		}
		res.LastErr = err
		if !isRetryable(err) {
			return res, err
		}
		if attempt < maxAttempts {
			if serr := Sleep(ctx, p, attempt); serr != nil {
				return res, serr
			}
		}
	}
	return res, ErrExhausted
}
