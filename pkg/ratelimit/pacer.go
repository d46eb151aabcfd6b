package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"xscraper/pkg/config"
)

// PauseKind names the points where a session deliberately waits
type PauseKind int

const (
	// PauseRecord follows every appended record
	PauseRecord PauseKind = iota
	// PauseEmptyPass follows a pass that added nothing
	PauseEmptyPass
	// PauseScroll follows every scroll command
	PauseScroll
)

func (k PauseKind) String() string {
	switch k {
	case PauseRecord:
		return "record"
	case PauseEmptyPass:
		return "empty_pass"
	case PauseScroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// Pacer suspends the caller for a kind-specific interval. Stale listings
// are not paced here; they wait on the harvest's stale backoff.
type Pacer interface {
	Pause(ctx context.Context, kind PauseKind) error
}

// Range is a closed interval of durations
type Range struct {
	Min time.Duration
	Max time.Duration
}

// JitterPacer waits a uniformly random duration within each kind's range
type JitterPacer struct {
	ranges map[PauseKind]Range
	mu     sync.Mutex
	rnd    *rand.Rand
}

// NewJitterPacer builds a pacer from the pacing section of the configuration
func NewJitterPacer(cfg config.PacingConfig) *JitterPacer {
	return &JitterPacer{
		ranges: map[PauseKind]Range{
			PauseRecord:    {cfg.RecordMin, cfg.RecordMax},
			PauseEmptyPass: {cfg.EmptyPassMin, cfg.EmptyPassMax},
			PauseScroll:    {cfg.ScrollMin, cfg.ScrollMax},
		},
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay picks the next duration for kind without waiting
func (p *JitterPacer) Delay(kind PauseKind) time.Duration {
	r := p.ranges[kind]
	if r.Max <= r.Min {
		return r.Min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.Min + time.Duration(p.rnd.Int63n(int64(r.Max-r.Min)+1))
}

func (p *JitterPacer) Pause(ctx context.Context, kind PauseKind) error {
	d := p.Delay(kind)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoopPacer never waits
type NoopPacer struct{}

func (NoopPacer) Pause(ctx context.Context, _ PauseKind) error { return nil }
