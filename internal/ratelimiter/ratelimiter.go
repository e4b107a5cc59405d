package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles how fast the acceptor pool takes connections off
// the listen queue.
//
// It wraps golang.org/x/time/rate (token bucket): tokens are refilled at
// connectionsPerSecond and up to burst connections may be accepted
// back-to-back. Connections that arrive while the bucket is empty stay in
// the kernel backlog until a token is available.
//
// Thread safety:
// All methods are safe for concurrent use; every acceptor goroutine shares
// one RateLimiter.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter.
//
// Special cases:
//   - connectionsPerSecond = 0: unlimited, Wait and Allow never block
//   - burst = 0: defaults to connectionsPerSecond
func New(connectionsPerSecond, burst int) *RateLimiter {
	if connectionsPerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = connectionsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(connectionsPerSecond), burst),
	}
}

// Unlimited reports whether the limiter lets everything through.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}

// Allow consumes a token if one is available, without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is cancelled.
//
// Acceptors call Wait with the pool context so that Stop never waits on a
// throttled acceptor.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
