package main

import (
	"context"
	"os"
	"strings"
	"time"

	"xscraper/internal/browser"
	"xscraper/internal/pool"
	"xscraper/pkg/auth"
	"xscraper/pkg/config"
	"xscraper/pkg/harvest"
	"xscraper/pkg/ledger"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/retry"
	"xscraper/pkg/storage"
	"xscraper/pkg/ui"
	"xscraper/pkg/viewport"
	"xscraper/pkg/viewport/snapshot"
)

// loadConfig merges the global flags into flags, loads the configuration
// and initializes the global logger from it
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" && logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if !notifications {
		cfg.Notifications.Enabled = false
	}
	if noColor {
		cfg.Logging.NoColor = true
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// driverFactory returns the replay factory when replayDir is set and a
// browser factory carrying the resolved account otherwise
func driverFactory(cfg *config.Config, accountName, replayDir string) (viewport.Factory, error) {
	if replayDir != "" {
		logger.WithField("dir", replayDir).Info("Replaying recorded frames")
		return snapshot.Factory(replayDir), nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}
	account, err := manager.Resolve(cfg.X, accountName)
	if err != nil {
		return nil, err
	}
	if account == nil {
		logger.Warn("No credentials configured, browsing logged out")
	} else {
		logger.WithField("account", account.Username).Info("Using stored credentials")
	}

	opts := browser.OptionsFromConfig(cfg.Browser, account, cfg.X.BaseURL)
	if opts.UserAgent == "" {
		opts.UserAgent = cfg.X.UserAgent
	}
	return browser.Factory(opts), nil
}

// newHarvester wires one pipeline from the configuration. The caller owns
// sink and closes it.
func newHarvester(cfg *config.Config, factory viewport.Factory, sink storage.Sink, pacer ratelimit.Pacer) (*pool.Harvester, error) {
	book, err := ledger.NewManager("")
	if err != nil {
		return nil, err
	}

	attempts, backoff := retry.FromConfig(cfg.Retry)
	stale := staleBackoff(cfg.Pacing)

	return &pool.Harvester{
		Factory: factory,
		Sink:    sink,
		Ledger:  book,
		Limiter: func() ratelimit.Limiter {
			return ratelimit.NewActionLimiter(cfg.Pacing.ActionsPerMinute, cfg.Pacing.Burst)
		},
		Pacer: pacer,
		Policy: harvest.Policy{
			Window:             cfg.Harvest.Window,
			StagnationCeiling:  cfg.Harvest.StagnationCeiling,
			EmptyPassThreshold: cfg.Harvest.EmptyPassThreshold,
			RefreshBudget:      cfg.Harvest.RefreshBudget,
		},
		Options: []harvest.Option{
			harvest.WithNavigationRetry(attempts, backoff),
			harvest.WithStaleBackoff(stale),
		},
		Notifier: newNotifier(cfg.Notifications),
		Logger:   logger.GetLogger(),
	}, nil
}

// openSink opens the configured sinks, bounded by the storage timeout
func openSink(cfg *config.Config) (storage.Sink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout+time.Second)
	defer cancel()
	return storage.Open(ctx, cfg, logger.GetLogger())
}

// configuredNotifier filters results by the notification preferences
type configuredNotifier struct {
	cfg      config.NotificationConfig
	notifier *ui.Notifier
}

func newNotifier(cfg config.NotificationConfig) pool.Notifier {
	var n *ui.Notifier
	switch strings.ToLower(cfg.NotificationType) {
	case "desktop":
		n = ui.NewNotifier()
	default:
		n = ui.NewNotifierWithSender(nil, os.Stdout)
	}
	return configuredNotifier{cfg: cfg, notifier: n}
}

func (c configuredNotifier) NotifyResult(res *harvest.Result) {
	if res == nil || !c.cfg.Enabled || strings.EqualFold(c.cfg.NotificationType, "none") {
		return
	}
	failed := res.Reason == harvest.ReasonDriverError || res.Reason == harvest.ReasonFatalConfig
	if failed && !c.cfg.OnError {
		return
	}
	if !failed && !c.cfg.OnComplete {
		return
	}
	c.notifier.NotifyResult(res)
}

// staleBackoff is the only delay taken before re-reading a listing that
// changed under the harvest
func staleBackoff(p config.PacingConfig) *retry.JitterBackoff {
	return &retry.JitterBackoff{Min: p.StaleMin, Max: p.StaleMax}
}
