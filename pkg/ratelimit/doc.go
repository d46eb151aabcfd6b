// Package ratelimit paces a harvest session.
//
// Two mechanisms work together:
//
// ActionLimiter caps navigation and scroll commands per minute using
// golang.org/x/time/rate. Throttle applies it to any viewport.Driver.
//
// JitterPacer inserts the randomized pauses a session takes after each
// appended record, after an empty pass, after each scroll and before
// retrying a stale listing, so interaction with the page never settles into
// a fixed rhythm.
//
// Usage:
//
//	limiter := ratelimit.NewActionLimiter(cfg.Pacing.ActionsPerMinute, cfg.Pacing.Burst)
//	driver = ratelimit.Throttle(driver, limiter)
//	pacer := ratelimit.NewJitterPacer(cfg.Pacing)
//	if err := pacer.Pause(ctx, ratelimit.PauseEmptyPass); err != nil {
//		return err // cancelled
//	}
package ratelimit
