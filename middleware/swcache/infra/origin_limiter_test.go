package infra

import (
	"context"
	"testing"
	"time"
)

func TestOriginLimiter_GetSameOriginReturnsSameLimiter(t *testing.T) {
	l := NewOriginLimiter(10, 1)

	l1 := l.Get("images.unsplash.com")
	l2 := l.Get("images.unsplash.com")
	if l1 != l2 {
		t.Fatalf("expected same limiter pointer for same origin")
	}
	if l.Get("cdn.example") == l1 {
		t.Fatalf("expected distinct limiter per origin")
	}
}

func TestOriginLimiter_LowBurstRejectsSecondImmediateAllow(t *testing.T) {
	l := NewOriginLimiter(0.02, 1)

	lim := l.Get("o")
	if !lim.Allow() {
		t.Fatalf("expected first Allow to be true")
	}
	if lim.Allow() {
		t.Fatalf("expected second immediate Allow to be false (burst=1)")
	}
}

func TestOriginLimiter_WaitHonorsContext(t *testing.T) {
	l := NewOriginLimiter(0.02, 1)
	_ = l.Wait(context.Background(), "o")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "o"); err == nil {
		t.Fatalf("expected Wait to fail when no token arrives before deadline")
	}

	var nilLimiter *OriginLimiter
	if err := nilLimiter.Wait(context.Background(), "o"); err != nil {
		t.Fatalf("expected nil limiter to be a no-op, got %v", err)
	}
}

func TestOriginLimiter_CleanupRemovesIdleEntries(t *testing.T) {
	l := NewOriginLimiter(10, 1, WithIdleTTL(2*time.Millisecond), WithCleanupEvery(0))

	before := l.Get("o")
	time.Sleep(4 * time.Millisecond)

	l.Cleanup()

	after := l.Get("o")
	if before == after {
		t.Fatalf("expected limiter to be recreated after cleanup")
	}
}
