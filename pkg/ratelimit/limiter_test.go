package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xscraper/pkg/config"
	"xscraper/pkg/viewport"
	"xscraper/pkg/viewport/snapshot"
)

func TestActionLimiterBurst(t *testing.T) {
	l := NewActionLimiter(60, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(), "burst slot %d", i)
	}
	assert.False(t, l.Allow(), "bucket drained")

	l.Reset()
	assert.True(t, l.Allow(), "reset refills")
}

func TestActionLimiterUnlimited(t *testing.T) {
	l := NewActionLimiter(0, 0)
	for i := 0; i < 1000; i++ {
		require.True(t, l.Allow())
	}
}

func TestActionLimiterWaitHonoursContext(t *testing.T) {
	l := NewActionLimiter(1, 1)
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestJitterPacerDelayWithinRange(t *testing.T) {
	cfg := config.DefaultConfig().Pacing
	p := NewJitterPacer(cfg)

	for i := 0; i < 100; i++ {
		d := p.Delay(PauseRecord)
		require.GreaterOrEqual(t, d, cfg.RecordMin)
		require.LessOrEqual(t, d, cfg.RecordMax)

		d = p.Delay(PauseEmptyPass)
		require.GreaterOrEqual(t, d, cfg.EmptyPassMin)
		require.LessOrEqual(t, d, cfg.EmptyPassMax)
	}
}

func TestJitterPacerPause(t *testing.T) {
	p := NewJitterPacer(config.PacingConfig{
		ScrollMin:    5 * time.Millisecond,
		ScrollMax:    10 * time.Millisecond,
		EmptyPassMin: time.Hour,
		EmptyPassMax: time.Hour,
	})

	start := time.Now()
	require.NoError(t, p.Pause(context.Background(), PauseScroll))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	// zero range returns immediately
	require.NoError(t, p.Pause(context.Background(), PauseRecord))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Pause(ctx, PauseEmptyPass), context.Canceled)
}

func TestPauseKindString(t *testing.T) {
	assert.Equal(t, "empty_pass", PauseEmptyPass.String())
	assert.Equal(t, "scroll", PauseScroll.String())
	assert.Equal(t, "unknown", PauseKind(3).String())
}

func TestThrottleGatesCommands(t *testing.T) {
	ctx := context.Background()
	d, err := snapshot.New(snapshot.Page(snapshot.Post("a", "1")), snapshot.Page(snapshot.Post("a", "2")))
	require.NoError(t, err)

	l := NewActionLimiter(1, 1)
	td := Throttle(d, l)

	require.NoError(t, td.Navigate(ctx, "https://x.com/a"))

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, td.ScrollToBottom(short), "second command must wait for a token")
	assert.Equal(t, 0, d.Scrolls())

	// listing is not throttled
	hs, err := td.Handles(ctx)
	require.NoError(t, err)
	assert.Len(t, hs, 1)

	pruner, ok := td.(viewport.Pruner)
	require.True(t, ok)
	_, err = pruner.PruneHidden(ctx)
	assert.NoError(t, err)

	revealer, ok := td.(viewport.Revealer)
	require.True(t, ok)
	assert.NoError(t, revealer.Reveal(ctx, hs[0]))

	assert.Same(t, d, Throttle(d, nil))
}
