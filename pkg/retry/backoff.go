package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"xscraper/pkg/config"
)

// BackoffStrategy picks the pause before retry number attempt (1-based)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff grows the pause by Multiplier per attempt up to
// MaxDelay, spread by up to JitterFactor in either direction
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff is used for navigation when nothing else is set
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	mult := eb.Multiplier
	if mult < 1 {
		mult = 1
	}

	delay := float64(eb.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}
	if eb.JitterFactor > 0 {
		spread := delay * eb.JitterFactor
		delay += rand.Float64()*2*spread - spread
	}
	return time.Duration(math.Max(delay, 0))
}

// ConstantBackoff waits Delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// JitterBackoff waits a uniformly random duration in [Min, Max] on every
// attempt. Stale listings are retried this way.
type JitterBackoff struct {
	Min time.Duration
	Max time.Duration
}

func (jb *JitterBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if jb.Max <= jb.Min {
		return jb.Min
	}
	return jb.Min + time.Duration(rand.Int63n(int64(jb.Max-jb.Min)+1))
}

// FromConfig returns the attempt bound and backoff described by the retry
// section of the configuration. A disabled section allows a single attempt.
func FromConfig(cfg config.RetryConfig) (int, BackoffStrategy) {
	if !cfg.Enabled || cfg.MaxAttempts <= 0 {
		return 1, &ConstantBackoff{}
	}
	return cfg.MaxAttempts, &ExponentialBackoff{
		BaseDelay:    cfg.BaseDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
