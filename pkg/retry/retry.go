package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
)

// ErrExhausted is wrapped into the error returned once MaxAttempts is used up
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy describes how an operation is retried
type Policy struct {
	// MaxAttempts bounds the attempts; 0 retries until RetryIf rejects the
	// error or the context ends
	MaxAttempts int
	Backoff     BackoffStrategy
	// RetryIf defaults to DefaultRetryIf
	RetryIf func(error) bool
	// OnRetry runs before each pause
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

func (p Policy) withDefaults() Policy {
	if p.Backoff == nil {
		p.Backoff = DefaultExponentialBackoff()
	}
	if p.RetryIf == nil {
		p.RetryIf = DefaultRetryIf
	}
	if p.Logger == nil {
		p.Logger = logger.NewNopLogger()
	}
	return p
}

// DefaultRetryIf retries typed errors whose type is retryable and any
// untyped error. Context errors never are.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var typed *errs.Error
	if errors.As(err, &typed) {
		return errs.IsRetryable(typed.Type)
	}
	return true
}

// TransientOnly retries only whole-list staleness conditions
func TransientOnly(err error) bool {
	return errs.IsTransientStructural(err)
}

// Do runs op until it succeeds, p gives up, or ctx ends. A non-retryable
// error is returned as is.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	p = p.withDefaults()

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				p.Logger.DebugWithFields("Operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		if !p.RetryIf(err) {
			return err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			p.Logger.WarnWithFields("Retry attempts exhausted", map[string]interface{}{
				"attempts": attempt,
				"error":    err.Error(),
			})
			return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
		}

		delay := p.Backoff.NextDelay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		p.Logger.DebugWithFields("Retrying", map[string]interface{}{
			"attempt":  attempt,
			"error":    err.Error(),
			"delay_ms": delay.Milliseconds(),
		})

		if werr := Wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}

// DoValue is Do for operations that produce a value
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, p, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}
