package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if an action is allowed right now
	Allow() bool
	// Wait blocks until an action is allowed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores the full burst
	Reset()
}

// ActionLimiter caps how many driver commands a session issues per minute
type ActionLimiter struct {
	perMinute int
	burst     int
	limiter   *rate.Limiter
}

// NewActionLimiter allows perMinute actions with the given burst. A
// non-positive perMinute disables limiting.
func NewActionLimiter(perMinute, burst int) *ActionLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ActionLimiter{
		perMinute: perMinute,
		burst:     burst,
		limiter:   rate.NewLimiter(limitFor(perMinute), burst),
	}
}

func limitFor(perMinute int) rate.Limit {
	if perMinute <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(perMinute))
}

func (a *ActionLimiter) Allow() bool {
	return a.limiter.Allow()
}

func (a *ActionLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Reset replaces the underlying bucket with a full one
func (a *ActionLimiter) Reset() {
	a.limiter = rate.NewLimiter(limitFor(a.perMinute), a.burst)
}
