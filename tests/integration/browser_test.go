package integration

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/internal/browser"
	"xscraper/internal/pool"
	"xscraper/pkg/harvest"
	"xscraper/pkg/session"
)

// TestMockServerFunctionality checks the timeline server itself
func TestMockServerFunctionality(t *testing.T) {
	helper := NewTestHelper(t)
	server := helper.SetupMockServer()
	server.SetTimeline("/search", posts("alice", 1, 3)...)

	resp, err := http.Get(server.URL() + "/search?q=golang&f=live")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	server.SetErrorStatus(http.StatusTooManyRequests)
	resp2, err := http.Get(server.URL() + "/search?q=golang")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp2.StatusCode)

	assert.Equal(t, 2, server.RequestCount())
	assert.Equal(t, "/search?q=golang&f=live", server.Requests()[0])
}

// TestBrowserHarvest drives a real browser against the mock server. It
// needs a local Chromium and runs only with XSCRAPER_BROWSER_TESTS=1.
func TestBrowserHarvest(t *testing.T) {
	if testing.Short() || os.Getenv("XSCRAPER_BROWSER_TESTS") != "1" {
		t.Skip("set XSCRAPER_BROWSER_TESTS=1 to run browser tests")
	}

	helper := NewTestHelper(t)
	server := helper.SetupMockServer()
	server.SetTimeline("/search", posts("alice", 1, 8)...)

	cfg := helper.Config()
	cfg.X.BaseURL = server.URL()

	factory := browser.Factory(browser.Options{
		Bin:               os.Getenv("XSCRAPER_BROWSER_BIN"),
		Headless:          true,
		NoSandbox:         true,
		NavigationTimeout: 20 * time.Second,
		Logger:            helper.Logger(),
	})
	h := helper.Harvester(cfg, factory, helper.OpenSink(cfg), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	target := helper.Target(session.TargetQuery, "golang", 5, server.URL())
	res := h.Run(ctx, pool.Job{Target: target})
	require.NoError(t, res.Error)
	require.NotNil(t, res.Harvest)

	assert.Equal(t, harvest.ReasonSuccess, res.Harvest.Reason)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, itemIDs(res.Harvest))
	assert.Equal(t, "@alice", res.Harvest.Records[0].Handle)
	assert.True(t, strings.HasPrefix(res.Harvest.Records[0].Permalink, server.URL()))

	var sawSearch bool
	for _, uri := range server.Requests() {
		if strings.HasPrefix(uri, "/search?") {
			sawSearch = true
		}
	}
	assert.True(t, sawSearch)
}
