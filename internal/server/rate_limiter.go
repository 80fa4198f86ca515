// Package server implements a token bucket rate limiter for per-connection
// throttling that protects the hub from abuse.
package server

import (
	"time"

	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter allows capacity events at once, refilled at capacity per
// interval.
func newRateLimiter(capacity int, interval time.Duration) *rateLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(capacity)/interval.Seconds()), capacity),
	}
}

func (rl *rateLimiter) allow() bool {
	return rl.limiter.Allow()
}
