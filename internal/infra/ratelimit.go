package infra

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter allows up to n requests per window, with a burst of n.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing n requests per window.
func NewRateLimiter(n int, window time.Duration) *RateLimiter {
	if n <= 0 {
		n = 1
	}
	every := window / time.Duration(n)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(every), n)}
}

// Wait blocks until a request slot is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Allow reports whether a request may proceed now without waiting.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}
