package ratelimit

import (
	"context"
	"time"
)

// Limiter answers whether a request from key (normally the client IP) is
// inside its sliding-window budget. Allow records the request when it is.
type Limiter interface {
	Allow(ctx context.Context, key string, maxRequests int, window time.Duration) (bool, error)
}
