package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/config"
	"xscraper/pkg/harvest"
	"xscraper/pkg/ledger"
	"xscraper/pkg/session"
	"xscraper/pkg/storage"
	"xscraper/pkg/ui"
)

func TestParseTargets(t *testing.T) {
	cfg := config.DefaultConfig()
	data := []byte(`
targets:
  - profile: golang
  - hashtag: gophercon
    max_items: 200
  - query: "go generics"
    tab: top
  - home: true
`)

	targets, err := parseTargets(data, cfg)
	require.NoError(t, err)
	require.Len(t, targets, 4)

	assert.Equal(t, session.TargetProfile, targets[0].Kind())
	assert.Equal(t, cfg.Harvest.MaxItems, targets[0].MaxItems())

	assert.Equal(t, "hashtag:gophercon", targets[1].Label())
	assert.Equal(t, 200, targets[1].MaxItems())

	assert.Equal(t, session.TargetQuery, targets[2].Kind())
	assert.Equal(t, session.TabTop, targets[2].Tab())

	assert.Equal(t, "home", targets[3].Label())
}

func TestParseTargetsRejects(t *testing.T) {
	cfg := config.DefaultConfig()
	tests := []struct {
		name string
		data string
	}{
		{"empty", "targets: []"},
		{"conflicting", "targets:\n  - profile: golang\n    query: go"},
		{"unnamed", "targets:\n  - tab: top"},
		{"bad tab", "targets:\n  - query: go\n    tab: newest"},
		{"bad yaml", "targets: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTargets([]byte(tt.data), cfg)
			assert.Error(t, err)
		})
	}
}

func TestConfiguredNotifierFilters(t *testing.T) {
	ok := &harvest.Result{Label: "query:go", Reason: harvest.ReasonSuccess}
	failed := &harvest.Result{Label: "query:go", Reason: harvest.ReasonDriverError}

	tests := []struct {
		name  string
		cfg   config.NotificationConfig
		res   *harvest.Result
		wants bool
	}{
		{"complete", config.NotificationConfig{Enabled: true, OnComplete: true}, ok, true},
		{"complete muted", config.NotificationConfig{Enabled: true, OnError: true}, ok, false},
		{"error", config.NotificationConfig{Enabled: true, OnError: true}, failed, true},
		{"error muted", config.NotificationConfig{Enabled: true, OnComplete: true}, failed, false},
		{"disabled", config.NotificationConfig{OnComplete: true, OnError: true}, ok, false},
		{"type none", config.NotificationConfig{Enabled: true, OnComplete: true, NotificationType: "none"}, ok, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			n := configuredNotifier{cfg: tt.cfg, notifier: ui.NewNotifierWithSender(nil, &out)}
			n.NotifyResult(tt.res)
			assert.Equal(t, tt.wants, out.Len() > 0)
		})
	}
}

func TestMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.X.AuthToken = "0123456789abcdef0123456789abcdef01234567"
	cfg.X.CSRFToken = "short"

	m := masked(cfg)
	assert.Equal(t, "0123...4567", m.X.AuthToken)
	assert.Equal(t, "***", m.X.CSRFToken)
	assert.Empty(t, m.Storage.DSN)
	// the original is untouched
	assert.Equal(t, "short", cfg.X.CSRFToken)
}

func TestRenderTables(t *testing.T) {
	var out bytes.Buffer
	renderLedger(&out, []ledger.Entry{{
		Key: "hashtag_golang", Label: "hashtag:golang", Reason: "success",
		Records: 50, Passes: 7, Runs: 1, UpdatedAt: time.Now(),
		Outputs: []string{"output/hashtag_golang_posts.json"},
	}})
	assert.Contains(t, out.String(), "hashtag_golang")
	assert.Contains(t, out.String(), "hashtag_golang_posts.json")

	out.Reset()
	renderHarvests(&out, []storage.HarvestRow{{
		SessionID: "abc", Query: "query_go", Label: "query:go", Reason: "stagnation",
		RecordCount: 12, CreatedAt: time.Now(),
	}})
	assert.Contains(t, out.String(), "query:go")
	assert.Contains(t, out.String(), "stagnation")
	assert.Contains(t, strings.ToLower(out.String()), "0/1 complete")
}

func TestRenderLedgerCountsCompleteTargets(t *testing.T) {
	var out bytes.Buffer
	renderLedger(&out, []ledger.Entry{
		{Key: "user_nasa", Label: "user:nasa", Reason: "success", UpdatedAt: time.Now()},
		{Key: "query_go", Label: "query:go", Reason: "cancelled", UpdatedAt: time.Now()},
		{Key: "query_rust", Label: "query:rust", Reason: "garbled", UpdatedAt: time.Now()},
	})
	assert.Contains(t, strings.ToLower(out.String()), "1/3 complete")

	assert.True(t, complete("success"))
	assert.False(t, complete("stagnation"))
	assert.False(t, complete(""))
}

func TestStaleBackoffFollowsPacing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pacing.StaleMin = 3 * time.Second
	cfg.Pacing.StaleMax = 3 * time.Second

	b := staleBackoff(cfg.Pacing)
	assert.Equal(t, 3*time.Second, b.NextDelay(1))
	assert.Equal(t, 3*time.Second, b.NextDelay(2))
}
