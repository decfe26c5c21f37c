package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	pruneInterval = 5 * time.Minute
	pruneCutoff   = 10 * time.Minute
)

// MemoryLimiter is a mutex-guarded sliding-window counter. It is per-process
// state: counts reset on restart and are not shared across workers. Deploys
// with more than one process should configure the redis limiter instead.
type MemoryLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	lastPrune time.Time
	now       func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		requests:  make(map[string][]time.Time),
		lastPrune: time.Now(),
		now:       time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, maxRequests int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	windowStart := now.Add(-window)
	kept := l.requests[key][:0]
	for _, t := range l.requests[key] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	l.requests[key] = kept

	if len(kept) >= maxRequests {
		return false, nil
	}

	l.requests[key] = append(kept, now)
	return true, nil
}

// pruneLocked drops stale keys so a long-running booth does not accumulate
// one entry per client IP it ever saw.
func (l *MemoryLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < pruneInterval {
		return
	}
	cutoff := now.Add(-pruneCutoff)
	for key, times := range l.requests {
		kept := times[:0]
		for _, t := range times {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = kept
		}
	}
	l.lastPrune = now
}
