package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xscraper/internal/pool"
	"xscraper/pkg/config"
	"xscraper/pkg/harvest"
	"xscraper/pkg/ledger"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/retry"
	"xscraper/pkg/session"
	"xscraper/pkg/storage"
	"xscraper/pkg/viewport"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t          *testing.T
	tempDir    string
	mockServer *MockTimelineServer
	log        *logger.TestLogger
}

// NewTestHelper creates a new test helper rooted in a fresh temp dir
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	return &TestHelper{t: t, tempDir: t.TempDir(), log: logger.NewTestLogger()}
}

// SetupMockServer starts a timeline server that is closed with the test
func (h *TestHelper) SetupMockServer() *MockTimelineServer {
	h.mockServer = NewMockTimelineServer()
	h.t.Cleanup(h.mockServer.Close)
	return h.mockServer
}

// Logger returns the capturing logger shared by every component
func (h *TestHelper) Logger() *logger.TestLogger {
	return h.log
}

// Path joins elem onto the temp dir
func (h *TestHelper) Path(elem ...string) string {
	return filepath.Join(append([]string{h.tempDir}, elem...)...)
}

// Config returns the default configuration with every path inside the
// temp dir and all pauses zeroed
func (h *TestHelper) Config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = h.Path("output")
	cfg.Pacing = config.PacingConfig{}
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = time.Millisecond
	cfg.Notifications.Enabled = false
	return cfg
}

// WriteFrames stores pages as numbered frames for a replay directory
func (h *TestHelper) WriteFrames(name string, pages ...string) string {
	dir := h.Path("frames", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.t.Fatalf("Failed to create frame dir: %v", err)
	}
	for i, page := range pages {
		path := filepath.Join(dir, fmt.Sprintf("%03d.html", i))
		if err := os.WriteFile(path, []byte(page), 0644); err != nil {
			h.t.Fatalf("Failed to write frame: %v", err)
		}
	}
	return dir
}

// OpenSink opens the sinks selected by cfg and closes them with the test
func (h *TestHelper) OpenSink(cfg *config.Config) storage.Sink {
	sink, err := storage.Open(context.Background(), cfg, h.log)
	if err != nil {
		h.t.Fatalf("Failed to open sink: %v", err)
	}
	h.t.Cleanup(func() { sink.Close() })
	return sink
}

// Ledger opens a ledger inside the temp dir
func (h *TestHelper) Ledger() *ledger.Manager {
	m, err := ledger.NewManager(h.Path("data"))
	if err != nil {
		h.t.Fatalf("Failed to open ledger: %v", err)
	}
	return m
}

// Harvester wires a pipeline the way the command line does, without pauses
func (h *TestHelper) Harvester(cfg *config.Config, factory viewport.Factory, sink storage.Sink, book *ledger.Manager) *pool.Harvester {
	return &pool.Harvester{
		Factory: factory,
		Sink:    sink,
		Ledger:  book,
		Limiter: func() ratelimit.Limiter {
			return ratelimit.NewActionLimiter(cfg.Pacing.ActionsPerMinute, cfg.Pacing.Burst)
		},
		Pacer: ratelimit.NewJitterPacer(cfg.Pacing),
		Policy: harvest.Policy{
			Window:             cfg.Harvest.Window,
			StagnationCeiling:  cfg.Harvest.StagnationCeiling,
			EmptyPassThreshold: cfg.Harvest.EmptyPassThreshold,
			RefreshBudget:      cfg.Harvest.RefreshBudget,
		},
		Options: []harvest.Option{
			harvest.WithStaleBackoff(&retry.ConstantBackoff{Delay: time.Millisecond}),
			harvest.WithNavigationRetry(cfg.Retry.MaxAttempts, &retry.ConstantBackoff{Delay: time.Millisecond}),
		},
		Logger: h.log,
	}
}

// Target builds a session for kind and id with budget items
func (h *TestHelper) Target(kind session.TargetKind, id string, budget int, baseURL string) session.Config {
	cfg, err := session.New(session.Options{Kind: kind, Identifier: id, MaxItems: budget, BaseURL: baseURL})
	if err != nil {
		h.t.Fatalf("Invalid target: %v", err)
	}
	return cfg
}
