package ratelimit

import (
	"context"

	"xscraper/pkg/viewport"
)

// throttled gates the commands that change what is rendered
type throttled struct {
	viewport.Driver
	limiter Limiter
}

// Throttle wraps d so that Navigate and ScrollToBottom first wait on l.
// Reveal and PruneHidden pass through when d supports them.
func Throttle(d viewport.Driver, l Limiter) viewport.Driver {
	if l == nil {
		return d
	}
	return &throttled{Driver: d, limiter: l}
}

func (t *throttled) Navigate(ctx context.Context, url string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Driver.Navigate(ctx, url)
}

func (t *throttled) ScrollToBottom(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Driver.ScrollToBottom(ctx)
}

func (t *throttled) Reveal(ctx context.Context, h viewport.Handle) error {
	if r, ok := t.Driver.(viewport.Revealer); ok {
		return r.Reveal(ctx, h)
	}
	return nil
}

func (t *throttled) PruneHidden(ctx context.Context) (int, error) {
	if p, ok := t.Driver.(viewport.Pruner); ok {
		return p.PruneHidden(ctx)
	}
	return 0, nil
}
