package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestBucketAllowsBurstThenThrottles(t *testing.T) {
	b := New(10, time.Second, 1)
	if !b.TryAcquire() {
		t.Fatal("expected first token to be immediately available")
	}
	if b.TryAcquire() {
		t.Fatal("expected second token to be throttled with burst of 1")
	}
}

func TestBucketAcquireRespectsContext(t *testing.T) {
	b := New(1, time.Hour, 1)
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire should not block: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.Acquire(ctx); err == nil {
		t.Fatal("expected second acquire to be cancelled by context deadline")
	}
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	b := Unlimited()
	for i := 0; i < 100; i++ {
		if !b.TryAcquire() {
			t.Fatalf("unlimited bucket throttled on call %d", i)
		}
	}
}
