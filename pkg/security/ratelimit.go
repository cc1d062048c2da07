package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-key rate limiting, keyed by client address.
type RateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.RWMutex
	now      func() time.Time

	// Configuration
	requestsPerSecond float64
	burst             int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter. A non-positive rate yields a
// limiter that allows everything.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:          make(map[string]*limiterEntry),
		now:               time.Now,
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
	}
}

// Enabled reports whether the limiter enforces anything.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.requestsPerSecond > 0
}

// Allow checks if a request for key should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}
	return rl.limiterFor(key).Allow()
}

// Wait blocks until a request for key can be made
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	if !rl.Enabled() {
		return nil
	}
	if err := rl.limiterFor(key).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", key, err)
	}
	return nil
}

// Forget drops the limiter state for key.
func (rl *RateLimiter) Forget(key string) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	delete(rl.limiters, key)
	rl.mu.Unlock()
}

// Prune forgets keys not seen for longer than idle and returns how many
// were dropped.
func (rl *RateLimiter) Prune(idle time.Duration) int {
	if rl == nil || idle <= 0 {
		return 0
	}
	cutoff := rl.now().Add(-idle)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for key, e := range rl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	if rl == nil {
		return 0
	}
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

// limiterFor gets or creates the limiter for key and marks it as seen
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, exists := rl.limiters[key]
	if !exists {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.requestsPerSecond), rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}
