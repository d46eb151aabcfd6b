package harvest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"xscraper/pkg/logger"
	"xscraper/pkg/models"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/retry"
	"xscraper/pkg/session"
	"xscraper/pkg/viewport"
	"xscraper/pkg/viewport/snapshot"
)

func posts(handle string, from, to int) []snapshot.Card {
	var cards []snapshot.Card
	for i := from; i <= to; i++ {
		cards = append(cards, snapshot.Post(handle, fmt.Sprint(i)))
	}
	return cards
}

func newSnapshot(t *testing.T, frames ...[]snapshot.Card) *snapshot.Driver {
	t.Helper()
	pages := make([]string, len(frames))
	for i, f := range frames {
		pages[i] = snapshot.Page(f...)
	}
	d, err := snapshot.New(pages...)
	require.NoError(t, err)
	return d
}

func queryTarget(t *testing.T, budget int) session.Config {
	t.Helper()
	cfg, err := session.New(session.Options{
		Kind:       session.TargetQuery,
		Identifier: "golang",
		MaxItems:   budget,
	})
	require.NoError(t, err)
	return cfg
}

func testOptions(extra ...Option) []Option {
	opts := []Option{
		WithLogger(logger.NewNopLogger()),
		WithStaleBackoff(&retry.ConstantBackoff{Delay: time.Millisecond}),
		WithNavigationRetry(3, &retry.ConstantBackoff{Delay: time.Millisecond}),
	}
	return append(opts, extra...)
}

// faultyDriver injects failures into a snapshot driver
type faultyDriver struct {
	*snapshot.Driver

	mu          sync.Mutex
	navCalls    int
	handleCalls int
	navErr      func(call int) error
	handlesErr  func(call int) error
	// sticky keeps the scroll position across reloads
	sticky bool
}

func (f *faultyDriver) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	f.navCalls++
	call := f.navCalls
	f.mu.Unlock()

	if f.navErr != nil {
		if err := f.navErr(call); err != nil {
			return err
		}
	}
	if f.sticky && call > 1 {
		return nil
	}
	return f.Driver.Navigate(ctx, url)
}

func (f *faultyDriver) Handles(ctx context.Context) ([]viewport.Handle, error) {
	f.mu.Lock()
	f.handleCalls++
	call := f.handleCalls
	f.mu.Unlock()

	if f.handlesErr != nil {
		if err := f.handlesErr(call); err != nil {
			return nil, err
		}
	}
	return f.Driver.Handles(ctx)
}

// recordingPacer counts pauses by kind without sleeping
type recordingPacer struct {
	mu     sync.Mutex
	counts map[ratelimit.PauseKind]int
}

func newRecordingPacer() *recordingPacer {
	return &recordingPacer{counts: make(map[ratelimit.PauseKind]int)}
}

func (p *recordingPacer) Pause(ctx context.Context, kind ratelimit.PauseKind) error {
	p.mu.Lock()
	p.counts[kind]++
	p.mu.Unlock()
	return ctx.Err()
}

func (p *recordingPacer) count(kind ratelimit.PauseKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[kind]
}

// recordingObserver keeps every callback for later assertions
type recordingObserver struct {
	NopObserver
	started   int
	records   []models.Record
	passes    []PassReport
	refreshes []int
	result    *Result
	onRecord  func(collected int)
}

func (o *recordingObserver) OnStart(string, string, int) { o.started++ }

func (o *recordingObserver) OnRecord(rec models.Record, collected, _ int) {
	o.records = append(o.records, rec)
	if o.onRecord != nil {
		o.onRecord(collected)
	}
}

func (o *recordingObserver) OnPass(r PassReport)      { o.passes = append(o.passes, r) }
func (o *recordingObserver) OnRefresh(attempt, _ int) { o.refreshes = append(o.refreshes, attempt) }
func (o *recordingObserver) OnTerminate(res *Result)  { o.result = res }

func (o *recordingObserver) pass(n int) PassReport {
	for _, p := range o.passes {
		if p.Pass == n {
			return p
		}
	}
	return PassReport{}
}
