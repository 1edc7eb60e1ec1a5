package ports

import (
	"context"
	"time"
)

// RateLimitRepository provides low-level operations for rate limiting counters.
// Implementation should be concurrency-safe.
type RateLimitRepository interface {
	// IncrementWindow increments the request counter for key in its current fixed window,
	// starting a new window when the previous one has elapsed. Returns the updated count
	// and the window start time.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimiterService defines a per-client rate limiting capability.
// Implementations MUST be safe for concurrent use.
type RateLimiterService interface {
	// Allow consumes one request unit for the identity and reports whether it is permitted.
	// remaining: number of additional requests allowed in current window after this one (>=0)
	// limit: configured max requests per window
	// reset: time when the current window resets
	Allow(ctx context.Context, identity string) (allowed bool, remaining int, limit int, reset time.Time, err error)
}
