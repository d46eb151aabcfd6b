package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/config"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
)

func newFileSink(t *testing.T, format string, overwrite bool) (*FileSink, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	s, err := NewFileSink(config.OutputConfig{
		BaseDirectory: dir,
		Format:        format,
		Overwrite:     overwrite,
	}, logger.NewTestLogger())
	require.NoError(t, err)
	return s, dir
}

func TestFileSinkJSON(t *testing.T) {
	s, dir := newFileSink(t, "json", false)

	require.NoError(t, s.Save(context.Background(), sampleBatch()))

	path := filepath.Join(dir, "golang_posts.json")
	assert.Equal(t, []string{path}, s.Written())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []models.Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleRecords(), got)
	assert.Contains(t, string(data), `"tweet_link": "https://x.com/gopher/status/101"`)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileSinkEmptyBatchIsArray(t *testing.T) {
	s, dir := newFileSink(t, "json", false)
	b := sampleBatch()
	b.Records = nil

	require.NoError(t, s.Save(context.Background(), b))
	data, err := os.ReadFile(filepath.Join(dir, "golang_posts.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestFileSinkNDJSON(t *testing.T) {
	s, dir := newFileSink(t, "ndjson", false)

	require.NoError(t, s.Save(context.Background(), sampleBatch()))

	data, err := os.ReadFile(filepath.Join(dir, "golang_posts.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var r models.Record
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &r))
	assert.Equal(t, "102", r.ItemID)
}

func TestFileSinkCSV(t *testing.T) {
	s, dir := newFileSink(t, "csv", false)

	require.NoError(t, s.Save(context.Background(), sampleBatch()))

	data, err := os.ReadFile(filepath.Join(dir, "golang_posts.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(strings.ToLower(lines[0]), "author,handle,timestamp"))
	assert.Contains(t, lines[1], `"hello, world #go"`)
	assert.Contains(t, lines[2], "@crab")
}

func TestFileSinkCSVRoundTrip(t *testing.T) {
	s, dir := newFileSink(t, "csv", false)

	b := sampleBatch()
	b.Records[0].Text = "hello, \"world\"\nsecond line"
	b.Records[0].Tags = []string{"#go", "#csv"}
	require.NoError(t, s.Save(context.Background(), b))

	f, err := os.Open(filepath.Join(dir, "golang_posts.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	for _, row := range rows {
		assert.Len(t, row, len(CSVHeader))
	}
	assert.Equal(t, "hello, \"world\"\nsecond line", rows[1][4])
	assert.Equal(t, "#go #csv", rows[1][9])
	assert.Equal(t, b.Records[0].ItemID, rows[1][14])
	assert.Equal(t, strconv.FormatInt(b.Records[1].Favorites, 10), rows[2][7])
}

func TestFileSinkKeepsExistingFile(t *testing.T) {
	s, dir := newFileSink(t, "json", false)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleBatch()))
	second := sampleBatch()
	second.SessionID = "abcdef1234"
	require.NoError(t, s.Save(ctx, second))

	assert.FileExists(t, filepath.Join(dir, "golang_posts.json"))
	assert.FileExists(t, filepath.Join(dir, "golang_posts_abcdef12.json"))

	loc, ok := s.Location("abcdef1234")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "golang_posts_abcdef12.json"), loc)

	multi := MultiSink{s}
	assert.Equal(t, []string{loc}, multi.Locations("abcdef1234"))
	assert.Empty(t, multi.Locations("unknown"))
}

func TestFileSinkOverwrite(t *testing.T) {
	s, dir := newFileSink(t, "json", true)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleBatch()))
	b := sampleBatch()
	b.Records = b.Records[:1]
	require.NoError(t, s.Save(ctx, b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, "golang_posts.json"))
	require.NoError(t, err)
	var got []models.Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got, 1)
}

func TestFileSinkPattern(t *testing.T) {
	s, err := NewFileSink(config.OutputConfig{
		BaseDirectory:   t.TempDir(),
		Format:          "csv",
		FileNamePattern: "{date}/{key}-{session}.{ext}",
	}, nil)
	require.NoError(t, err)

	b := sampleBatch()
	b.SessionID = "s1"
	// directories in the pattern are flattened
	assert.Equal(t, "golang-s1.csv", filepath.Base(s.PathFor(b)))

	b.Key = ""
	assert.Equal(t, "harvest-s1.csv", filepath.Base(s.PathFor(b)))
}

func TestFileSinkRejectsUnknownFormat(t *testing.T) {
	_, err := NewFileSink(config.OutputConfig{BaseDirectory: t.TempDir(), Format: "xml"}, nil)
	require.Error(t, err)
}

func TestFileSinkCancelled(t *testing.T) {
	s, _ := newFileSink(t, "json", false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, sampleBatch()), context.Canceled)
}
