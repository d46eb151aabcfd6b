package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xscraper/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level without color", &config.LoggingConfig{Level: "debug", NoColor: true}, false},
		{"invalid level", &config.LoggingConfig{Level: "verbose"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "xscraper.log")}, false},
		{"quiet file output", &config.LoggingConfig{Level: "warn", File: filepath.Join(t.TempDir(), "q.log"), Quiet: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func newBufferLogger(t *testing.T) (Logger, *bytes.Buffer) {
	t.Helper()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	return NewWithWriter(&buf, zerolog.DebugLevel), &buf
}

func TestDefaultFields(t *testing.T) {
	l, buf := newBufferLogger(t)
	l.Info("harvest started")

	assert.Contains(t, buf.String(), `"app":"xscraper"`)
	assert.Contains(t, buf.String(), `"version":"dev"`)
	assert.Contains(t, buf.String(), "harvest started")
}

func TestFieldChaining(t *testing.T) {
	l, buf := newBufferLogger(t)

	child := l.WithField("target", "hashtag:golang").
		WithFields(map[string]interface{}{"pass": 3, "stale": true})
	child.Warn("handle list went stale")

	out := buf.String()
	assert.Contains(t, out, `"target":"hashtag:golang"`)
	assert.Contains(t, out, `"pass":3`)
	assert.Contains(t, out, `"stale":true`)

	buf.Reset()
	l.Info("parent untouched")
	assert.NotContains(t, buf.String(), "hashtag:golang")
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("target closed")).Error("scroll failed")
	assert.Contains(t, buf.String(), `"error":"target closed"`)
}

func TestFieldTypes(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.InfoWithFields("typed", map[string]interface{}{
		"int64":    int64(456),
		"duration": 5 * time.Second,
		"tags":     []string{"go", "rod"},
		"when":     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		"custom":   struct{ Name string }{Name: "x"},
	})

	out := buf.String()
	assert.Contains(t, out, `"int64":456`)
	assert.Contains(t, out, `"tags":["go","rod"]`)
	assert.Contains(t, out, `"custom":{"Name":"x"}`)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogPass(tl, 2, 4, 9, 20)
	LogHarvestProgress(tl, "profile:nasa", 5, 20)
	LogRefresh(tl, "https://x.com/nasa", 1, 2)
	LogTermination(tl, "stagnation", 9, 14)
	LogTermination(tl, "driver_error", 9, 14)

	assert.Len(t, tl.GetMessagesByLevel("DEBUG"), 1)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 2)
	progress := tl.GetMessagesByLevel("INFO")
	require.Len(t, progress, 2)
	assert.Equal(t, "25.0%", progress[0].Fields["percentage"])
	assert.Equal(t, "stagnation", progress[1].Fields["reason"])
}

func TestTestLoggerSharesCapture(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("session", "abc")
	child.Error("boom")

	require.True(t, tl.HasError())
	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "abc", msgs[0].Fields["session"])
	assert.Contains(t, tl.String(), "[ERROR] boom")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug", NoColor: true}))
	assert.NotNil(t, GetLogger())

	tl := NewTestLogger()
	SetLogger(tl)
	defer SetLogger(nil)

	Info("via global")
	WithField("k", "v").Warn("with field")
	assert.True(t, tl.HasMessage("via global"))
	assert.True(t, tl.HasMessage("with field"))
}

func TestLogMetrics(t *testing.T) {
	tl := NewTestLogger()
	LogMetrics(tl, "harvest", map[string]interface{}{"passes": 7})

	require.True(t, tl.HasMessage("Performance metrics"))
	entry := tl.GetMessagesByLevel("INFO")[0]
	assert.Equal(t, "harvest", entry.Fields["operation"])
	assert.Equal(t, 7, entry.Fields["passes"])
}
