package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "xscraper/pkg/errors"
)

func newSQLite(t *testing.T) *SQLiteSink {
	t.Helper()
	s, err := NewSQLiteSink(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleBatch()))

	got, err := s.Records(ctx, sampleBatch().SessionID)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestSQLiteSinkHarvests(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	older := sampleBatch()
	older.SessionID = "older"
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, sampleBatch()))

	other := sampleBatch()
	other.SessionID = "other"
	other.Key = "profile_nasa"
	other.Records = nil
	require.NoError(t, s.Save(ctx, other))

	rows, err := s.Harvests(ctx, "golang")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sampleBatch().SessionID, rows[0].SessionID)
	assert.Equal(t, "older", rows[1].SessionID)
	assert.Equal(t, 2, rows[0].RecordCount)
	assert.Equal(t, "success", rows[0].Reason)

	all, err := s.Harvests(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := s.Records(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteSinkDuplicateSession(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleBatch()))
	err := s.Save(ctx, sampleBatch())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeStorage))

	// the failed save left nothing behind
	got, err := s.Records(ctx, sampleBatch().SessionID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLiteSinkRequiresDSN(t *testing.T) {
	_, err := NewSQLiteSink(context.Background(), "")
	assert.True(t, errs.IsFatalConfig(err))
}
