package pool

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/harvest"
	"xscraper/pkg/ledger"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/retry"
	"xscraper/pkg/session"
	"xscraper/pkg/storage"
	"xscraper/pkg/viewport"
	"xscraper/pkg/viewport/snapshot"
)

type countingNotifier struct {
	mu      sync.Mutex
	results []*harvest.Result
}

func (n *countingNotifier) NotifyResult(res *harvest.Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, res)
}

func replayFactory(count int) viewport.Factory {
	var cards []snapshot.Card
	for i := 1; i <= count; i++ {
		cards = append(cards, snapshot.Post("gopher", fmt.Sprint(i)))
	}
	page := snapshot.Page(cards...)
	return func(ctx context.Context) (viewport.Driver, error) {
		return snapshot.New(page)
	}
}

type fixture struct {
	harvester *Harvester
	files     *storage.FileSink
	ledger    *ledger.Manager
	notifier  *countingNotifier
	outDir    string
}

func newFixture(t *testing.T, factory viewport.Factory) *fixture {
	t.Helper()
	dir := t.TempDir()

	files, err := storage.NewFileSink(config.OutputConfig{
		BaseDirectory: filepath.Join(dir, "out"),
		Format:        "json",
	}, logger.NewNopLogger())
	require.NoError(t, err)

	led, err := ledger.NewManager(filepath.Join(dir, "data"))
	require.NoError(t, err)

	n := &countingNotifier{}
	return &fixture{
		harvester: &Harvester{
			Factory:  factory,
			Sink:     storage.MultiSink{files},
			Ledger:   led,
			Limiter:  func() ratelimit.Limiter { return ratelimit.NewActionLimiter(0, 0) },
			Pacer:    ratelimit.NoopPacer{},
			Options:  []harvest.Option{harvest.WithStaleBackoff(&retry.ConstantBackoff{Delay: time.Millisecond})},
			Notifier: n,
			Logger:   logger.NewNopLogger(),
		},
		files:    files,
		ledger:   led,
		notifier: n,
		outDir:   filepath.Join(dir, "out"),
	}
}

func hashtagJob(t *testing.T, budget int) Job {
	t.Helper()
	cfg, err := session.New(session.Options{Kind: session.TargetHashtag, Identifier: "golang", MaxItems: budget})
	require.NoError(t, err)
	return Job{Target: cfg}
}

func TestHarvesterSavesAndRecords(t *testing.T) {
	f := newFixture(t, replayFactory(3))
	job := hashtagJob(t, 3)

	res := f.harvester.Run(context.Background(), job)
	require.NoError(t, res.Error)
	require.NotNil(t, res.Harvest)
	assert.False(t, res.Skipped)
	assert.Equal(t, harvest.ReasonSuccess, res.Harvest.Reason)
	assert.Len(t, res.Harvest.Records, 3)

	want := filepath.Join(f.outDir, "hashtag_golang_posts.json")
	assert.Equal(t, []string{want}, res.Outputs)
	assert.FileExists(t, want)

	entry, err := f.ledger.Lookup("hashtag_golang")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 3, entry.Records)
	assert.Equal(t, "success", entry.Reason)
	assert.Equal(t, res.Harvest.SessionID, entry.SessionID)
	assert.Equal(t, []string{want}, entry.Outputs)

	assert.Len(t, f.notifier.results, 1)
}

func TestHarvesterSkipsKnownTarget(t *testing.T) {
	f := newFixture(t, replayFactory(3))
	job := hashtagJob(t, 3)

	first := f.harvester.Run(context.Background(), job)
	require.NoError(t, first.Error)

	second := f.harvester.Run(context.Background(), job)
	require.NoError(t, second.Error)
	assert.True(t, second.Skipped)
	assert.Nil(t, second.Harvest)
	assert.Equal(t, first.Outputs, second.Outputs)

	job.Force = true
	forced := f.harvester.Run(context.Background(), job)
	require.NoError(t, forced.Error)
	assert.False(t, forced.Skipped)
	assert.Len(t, f.files.Written(), 2)

	entry, err := f.ledger.Lookup("hashtag_golang")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Runs)
}

func TestHarvesterStagnationIsRecorded(t *testing.T) {
	f := newFixture(t, replayFactory(2))

	res := f.harvester.Run(context.Background(), hashtagJob(t, 10))
	require.NoError(t, res.Error)
	assert.Equal(t, harvest.ReasonStagnation, res.Harvest.Reason)
	assert.Len(t, res.Harvest.Records, 2)

	entry, err := f.ledger.Lookup("hashtag_golang")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "stagnation", entry.Reason)
}

func TestHarvesterCancelledKeepsPartialButNotLedger(t *testing.T) {
	f := newFixture(t, replayFactory(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.harvester.Run(ctx, hashtagJob(t, 10))
	require.NoError(t, res.Error)
	require.NotNil(t, res.Harvest)
	assert.Equal(t, harvest.ReasonCancelled, res.Harvest.Reason)
	assert.Len(t, res.Outputs, 1)

	entry, err := f.ledger.Lookup("hashtag_golang")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestHarvesterFactoryFailure(t *testing.T) {
	f := newFixture(t, func(ctx context.Context) (viewport.Driver, error) {
		return nil, errors.New("chrome not found")
	})

	res := f.harvester.Run(context.Background(), hashtagJob(t, 3))
	require.Error(t, res.Error)
	assert.True(t, errs.IsType(res.Error, errs.ErrorTypeDriver))
	assert.Nil(t, res.Harvest)
	assert.Empty(t, f.files.Written())
}

func TestHarvesterInvalidTarget(t *testing.T) {
	f := newFixture(t, replayFactory(3))

	res := f.harvester.Run(context.Background(), Job{Target: session.Config{}})
	require.Error(t, res.Error)
	assert.True(t, errs.IsFatalConfig(res.Error))
	assert.Empty(t, f.files.Written())
}

func TestHarvesterWithoutFactory(t *testing.T) {
	h := &Harvester{Logger: logger.NewNopLogger()}
	res := h.Run(context.Background(), hashtagJob(t, 3))
	assert.True(t, errs.IsFatalConfig(res.Error))
}

func TestPoolWithHarvester(t *testing.T) {
	f := newFixture(t, replayFactory(4))
	f.harvester.Ledger = nil

	p := New(context.Background(), 2, f.harvester, logger.NewNopLogger())
	p.Start()
	results, wg := collect(p)

	for _, tag := range []string{"golang", "rustlang", "ziglang"} {
		cfg, err := session.New(session.Options{Kind: session.TargetHashtag, Identifier: tag, MaxItems: 4})
		require.NoError(t, err)
		require.NoError(t, p.Submit(Job{Target: cfg}))
	}
	p.Stop()
	wg.Wait()

	require.Len(t, *results, 3)
	for _, r := range *results {
		require.NoError(t, r.Error)
		assert.Len(t, r.Harvest.Records, 4)
	}
	assert.Len(t, f.files.Written(), 3)
}
