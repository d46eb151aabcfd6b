package integration

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/internal/pool"
	"xscraper/pkg/harvest"
	"xscraper/pkg/session"
	"xscraper/pkg/storage"
	"xscraper/pkg/viewport/snapshot"
)

func posts(handle string, from, to int) []snapshot.Card {
	var out []snapshot.Card
	for i := from; i <= to; i++ {
		out = append(out, snapshot.Post(handle, strconv.Itoa(i)))
	}
	return out
}

func itemIDs(res *harvest.Result) []string {
	ids := make([]string, len(res.Records))
	for i, r := range res.Records {
		ids[i] = r.ItemID
	}
	return ids
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) > 0 {
			n++
		}
	}
	require.NoError(t, sc.Err())
	return n
}

// TestReplayHarvestEndToEnd runs recorded frames through the full pipeline:
// controller, file and SQLite sinks, then the ledger
func TestReplayHarvestEndToEnd(t *testing.T) {
	helper := NewTestHelper(t)

	first := append(posts("alice", 101, 103), snapshot.Promoted("Acme"))
	second := append(posts("alice", 102, 103), posts("bob", 201, 204)...)
	frames := helper.WriteFrames("golang", snapshot.Page(first...), snapshot.Page(second...))

	cfg := helper.Config()
	cfg.Output.Format = "ndjson"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = helper.Path("posts.db")

	sink := helper.OpenSink(cfg)
	book := helper.Ledger()
	h := helper.Harvester(cfg, snapshot.Factory(frames), sink, book)

	target := helper.Target(session.TargetQuery, "golang", 6, "")
	res := h.Run(context.Background(), pool.Job{Target: target})
	require.NoError(t, res.Error)
	require.NotNil(t, res.Harvest)

	assert.Equal(t, harvest.ReasonSuccess, res.Harvest.Reason)
	assert.Equal(t, []string{"101", "102", "103", "201", "202", "203"}, itemIDs(res.Harvest))
	assert.Equal(t, 2, res.Harvest.Stats.Duplicates)
	assert.Equal(t, 1, res.Harvest.Stats.Placeholders)

	// the export file
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, 6, countLines(t, res.Outputs[0]))

	// the database copy keeps discovery order
	multi, ok := sink.(storage.MultiSink)
	require.True(t, ok)
	require.Len(t, multi, 2)
	db, ok := multi[1].(*storage.SQLiteSink)
	require.True(t, ok)

	stored, err := db.Records(context.Background(), res.Harvest.SessionID)
	require.NoError(t, err)
	require.Len(t, stored, 6)
	assert.Equal(t, "101", stored[0].ItemID)
	assert.Equal(t, "203", stored[5].ItemID)
	assert.Equal(t, "Bob", stored[3].AuthorName)

	rows, err := db.Harvests(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "success", rows[0].Reason)
	assert.Equal(t, 6, rows[0].RecordCount)

	// the ledger remembers the target
	entry, err := book.Lookup(target.StorageKey())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 6, entry.Records)
	assert.Equal(t, "success", entry.Reason)
	assert.Equal(t, res.Outputs, entry.Outputs)

	again := h.Run(context.Background(), pool.Job{Target: target})
	assert.True(t, again.Skipped)
	assert.Nil(t, again.Harvest)
	assert.Equal(t, res.Outputs, again.Outputs)
}

func TestReplayStagnationIsRecorded(t *testing.T) {
	helper := NewTestHelper(t)
	frames := helper.WriteFrames("small", snapshot.Page(posts("alice", 1, 3)...))

	cfg := helper.Config()
	book := helper.Ledger()
	h := helper.Harvester(cfg, snapshot.Factory(frames), helper.OpenSink(cfg), book)

	target := helper.Target(session.TargetHashtag, "quiet", 50, "")
	res := h.Run(context.Background(), pool.Job{Target: target})
	require.NoError(t, res.Error)

	assert.Equal(t, harvest.ReasonStagnation, res.Harvest.Reason)
	assert.Len(t, res.Harvest.Records, 3)
	assert.Equal(t, cfg.Harvest.RefreshBudget, res.Harvest.Stats.Refreshes)
	assert.True(t, helper.Logger().HasMessage("Harvest finished"))

	entry, err := book.Lookup("hashtag_quiet")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "stagnation", entry.Reason)
}

func TestReplayMissingFramesFailsTheJob(t *testing.T) {
	helper := NewTestHelper(t)
	cfg := helper.Config()
	book := helper.Ledger()
	h := helper.Harvester(cfg, snapshot.Factory(helper.Path("nowhere")), helper.OpenSink(cfg), book)

	target := helper.Target(session.TargetQuery, "golang", 5, "")
	res := h.Run(context.Background(), pool.Job{Target: target})
	assert.Error(t, res.Error)
	assert.Nil(t, res.Harvest)

	entries, err := book.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBatchThroughPool(t *testing.T) {
	helper := NewTestHelper(t)
	frames := helper.WriteFrames("batch", snapshot.Page(posts("gopher", 1, 10)...))

	cfg := helper.Config()
	book := helper.Ledger()
	h := helper.Harvester(cfg, snapshot.Factory(frames), helper.OpenSink(cfg), book)

	targets := []session.Config{
		helper.Target(session.TargetHashtag, "golang", 3, ""),
		helper.Target(session.TargetProfile, "gopher", 3, ""),
		helper.Target(session.TargetQuery, "go generics", 3, ""),
	}

	p := pool.New(context.Background(), 2, h, helper.Logger())
	p.Start()
	go func() {
		defer p.Stop()
		for _, target := range targets {
			if err := p.Submit(pool.Job{Target: target}); err != nil {
				t.Errorf("submit: %v", err)
				return
			}
		}
	}()

	var outputs []string
	for res := range p.Results() {
		require.NoError(t, res.Error)
		require.NotNil(t, res.Harvest)
		assert.Equal(t, harvest.ReasonSuccess, res.Harvest.Reason)
		assert.Len(t, res.Harvest.Records, 3)
		outputs = append(outputs, res.Outputs...)
	}
	assert.Len(t, outputs, 3)

	entries, err := book.List()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
