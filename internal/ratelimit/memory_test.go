package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterBudget(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := l.Allow(ctx, "1.2.3.4", 5, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d rejected inside the budget", i+1)
		}
	}

	allowed, err := l.Allow(ctx, "1.2.3.4", 5, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Errorf("request over the budget was allowed")
	}
}

func TestMemoryLimiterWindowSlides(t *testing.T) {
	l := NewMemoryLimiter()
	base := time.Now()
	l.now = func() time.Time { return base }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if allowed, _ := l.Allow(ctx, "k", 3, time.Minute); !allowed {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if allowed, _ := l.Allow(ctx, "k", 3, time.Minute); allowed {
		t.Fatalf("budget not enforced")
	}

	// past the window the old hits no longer count
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if allowed, _ := l.Allow(ctx, "k", 3, time.Minute); !allowed {
		t.Errorf("request rejected after the window slid past the old hits")
	}
}

func TestMemoryLimiterKeysIndependent(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	if allowed, _ := l.Allow(ctx, "a", 1, time.Minute); !allowed {
		t.Fatalf("first request for key a rejected")
	}
	if allowed, _ := l.Allow(ctx, "a", 1, time.Minute); allowed {
		t.Fatalf("key a over budget but allowed")
	}
	if allowed, _ := l.Allow(ctx, "b", 1, time.Minute); !allowed {
		t.Errorf("key b throttled by key a's traffic")
	}
}

func TestMemoryLimiterPrunesStaleKeys(t *testing.T) {
	l := NewMemoryLimiter()
	base := time.Now()
	l.now = func() time.Time { return base }
	l.lastPrune = base
	ctx := context.Background()

	l.Allow(ctx, "stale", 10, time.Minute)

	// next request far in the future triggers the prune pass
	l.now = func() time.Time { return base.Add(pruneCutoff + pruneInterval + time.Second) }
	l.Allow(ctx, "fresh", 10, time.Minute)

	l.mu.Lock()
	_, ok := l.requests["stale"]
	l.mu.Unlock()
	if ok {
		t.Errorf("stale key not pruned")
	}
}
