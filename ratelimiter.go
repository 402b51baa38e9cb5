package lmg

import (
	"context"
	"sync"
	"time"
)

/*
RateLimiter is a token bucket. Each circuit submission takes a token; tokens
come back one per refillRate up to maxTokens, so short bursts pass straight
through while a long sweep settles at the configured rate.
*/
type RateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter returns a full bucket.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

/*
Limit takes a token if one is available and reports whether the caller has
to wait instead.
*/
func (rl *RateLimiter) Limit() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())
	if rl.tokens > 0 {
		rl.tokens--
		return false
	}
	return true
}

// Wait blocks until a token is taken or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for rl.Limit() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.refillRate):
		}
	}
	return nil
}

// refill adds one token per whole refill period since the last refill.
func (rl *RateLimiter) refill(now time.Time) {
	if rl.refillRate <= 0 {
		rl.tokens = rl.maxTokens
		return
	}

	periods := int(now.Sub(rl.lastRefill) / rl.refillRate)
	if periods > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+periods)
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}

/*
ThrottledBackend submits circuits to another backend no faster than its
limiter allows. Grid workers share one limiter, so the rate holds across the
whole pool.
*/
type ThrottledBackend struct {
	Backend
	limiter *RateLimiter
}

/*
NewThrottledBackend limits backend to perSecond circuits a second with bursts
of up to burst circuits.
*/
func NewThrottledBackend(backend Backend, perSecond float64, burst int) *ThrottledBackend {
	return &ThrottledBackend{
		Backend: backend,
		limiter: NewRateLimiter(max(burst, 1), time.Duration(float64(time.Second)/perSecond)),
	}
}

func (t *ThrottledBackend) Run(ctx context.Context, c *Circuit) (Probabilities, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.Backend.Run(ctx, c)
}
