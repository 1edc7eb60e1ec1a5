package repositories

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxTrackedKeys = 10000

// RateLimitMemoryRepository implements fixed-window counters in process memory.
// The table is bounded: once maxKeys identities are tracked the least recently
// used bucket is evicted. State resets whenever the process restarts.
type RateLimitMemoryRepository struct {
	// mu makes read-modify-write of a bucket atomic; the LRU only guards its own list.
	mu      sync.Mutex
	buckets *lru.Cache[string, *rateBucket]
	ttl     time.Duration
	now     func() time.Time
}

type rateBucket struct {
	count       int
	windowStart time.Time
	lastSeen    time.Time
}

type MemoryRepositoryOption func(*RateLimitMemoryRepository)

// WithBucketTTL sets how long an idle bucket is kept before the janitor drops it.
func WithBucketTTL(d time.Duration) MemoryRepositoryOption {
	return func(r *RateLimitMemoryRepository) { r.ttl = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryRepositoryOption {
	return func(r *RateLimitMemoryRepository) { r.now = now }
}

func NewRateLimitMemoryRepository(maxKeys int, opts ...MemoryRepositoryOption) *RateLimitMemoryRepository {
	if maxKeys <= 0 {
		maxKeys = defaultMaxTrackedKeys
	}
	// lru.New only fails for a non-positive size
	buckets, _ := lru.New[string, *rateBucket](maxKeys)
	r := &RateLimitMemoryRepository{
		buckets: buckets,
		ttl:     time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IncrementWindow counts one request for key. A bucket whose window has fully
// elapsed starts over with a fresh window at the current time.
func (r *RateLimitMemoryRepository) IncrementWindow(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Get also marks the bucket as most recently used.
	if b, ok := r.buckets.Get(key); ok {
		if now.Sub(b.windowStart) >= window {
			b.windowStart = now
			b.count = 0
		}
		b.count++
		b.lastSeen = now
		return b.count, b.windowStart, nil
	}

	b := &rateBucket{count: 1, windowStart: now, lastSeen: now}
	r.buckets.Add(key, b)
	return b.count, b.windowStart, nil
}

// Cleanup drops buckets idle for longer than the TTL and returns how many were removed.
func (r *RateLimitMemoryRepository) Cleanup() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	// Keys are ordered oldest first, so stop at the first fresh one.
	for _, key := range r.buckets.Keys() {
		b, ok := r.buckets.Peek(key)
		if !ok {
			continue
		}
		if !b.lastSeen.Before(cutoff) {
			break
		}
		r.buckets.Remove(key)
		removed++
	}
	return removed
}

// Len reports the number of tracked identities.
func (r *RateLimitMemoryRepository) Len() int {
	return r.buckets.Len()
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (r *RateLimitMemoryRepository) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.Cleanup()
			}
		}
	}()
}
