package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
)

type memorySink struct {
	saved  []Batch
	err    error
	closed bool
}

func (m *memorySink) Save(_ context.Context, b Batch) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, b)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func TestMultiSinkContinuesPastFailure(t *testing.T) {
	failing := &memorySink{err: errors.New("disk full")}
	ok := &memorySink{}
	m := MultiSink{failing, ok}

	err := m.Save(context.Background(), sampleBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, ok.saved, 1)

	require.NoError(t, m.Close())
	assert.True(t, failing.closed)
	assert.True(t, ok.closed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = filepath.Join(t.TempDir(), "out")

	sink, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Len(t, sink.(MultiSink), 1)
	require.NoError(t, sink.Close())

	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = ":memory:"
	sink, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	multi := sink.(MultiSink)
	require.Len(t, multi, 2)
	assert.IsType(t, &SQLiteSink{}, multi[1])
	require.NoError(t, sink.Save(ctx, sampleBatch()))
	require.NoError(t, sink.Close())

	cfg.Storage.Driver = "redis"
	_, err = Open(ctx, cfg, nil)
	assert.True(t, errs.IsFatalConfig(err))
}

func TestMongoSinkRejectsBadURI(t *testing.T) {
	_, err := NewMongoSink(context.Background(), config.StorageConfig{DSN: "postgres://localhost"})
	require.Error(t, err)
	assert.True(t, errs.IsFatalConfig(err))

	_, err = NewMongoSink(context.Background(), config.StorageConfig{})
	assert.True(t, errs.IsFatalConfig(err))
}

func TestHarvestDocumentShape(t *testing.T) {
	b := sampleBatch()
	b.Records = nil
	b.CreatedAt = time.Time{}

	doc := newHarvestDocument(b)
	assert.NotNil(t, doc.Records)
	assert.False(t, doc.CreatedAt.IsZero())

	raw, err := bson.Marshal(newHarvestDocument(sampleBatch()))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "golang", m["query"])
	assert.Contains(t, m, "tweets")
	assert.Contains(t, m, "created_at")
	assert.Equal(t, "success", m["reason"])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ext  string
	}{
		{"", FormatJSON, "json"},
		{"JSON", FormatJSON, "json"},
		{"jsonl", FormatNDJSON, "jsonl"},
		{"ndjson", FormatNDJSON, "jsonl"},
		{" csv ", FormatCSV, "csv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
			assert.Equal(t, tt.ext, f.Ext())
		})
	}

	_, err := ParseFormat("parquet")
	assert.True(t, errs.IsFatalConfig(err))
}

func TestWriteCSVEmpty(t *testing.T) {
	var out strings.Builder
	require.NoError(t, WriteCSV(&out, nil))
	assert.Equal(t, strings.Join(CSVHeader, ",")+"\n", out.String())
}
