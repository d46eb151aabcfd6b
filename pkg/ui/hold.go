package ui

import (
	"context"
	"time"

	"xscraper/pkg/ratelimit"
)

// PauseSource reports whether the user put the harvest on hold
type PauseSource interface {
	IsPaused() bool
}

// HoldPacer runs the wrapped pacer and then blocks while source is paused
type HoldPacer struct {
	Pacer  ratelimit.Pacer
	Source PauseSource
	Poll   time.Duration
}

func (h HoldPacer) Pause(ctx context.Context, kind ratelimit.PauseKind) error {
	if h.Pacer != nil {
		if err := h.Pacer.Pause(ctx, kind); err != nil {
			return err
		}
	}
	if h.Source == nil {
		return nil
	}
	poll := h.Poll
	if poll <= 0 {
		poll = 200 * time.Millisecond
	}
	for h.Source.IsPaused() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
	return nil
}

var _ ratelimit.Pacer = HoldPacer{}
