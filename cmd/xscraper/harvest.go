package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"xscraper/internal/pool"
	"xscraper/pkg/harvest"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/session"
	"xscraper/pkg/ui"
	"xscraper/pkg/ui/tui"
)

var (
	// Harvest command flags
	profileHandle string
	hashtag       string
	searchQuery   string
	latestTab     bool
	topTab        bool
	maxItems      int
	forceRun      bool
	outputDir     string
	outputFormat  string
	storageDriver string
	storageDSN    string
	accountName   string
	controlURL    string
	headless      bool
	replayDir     string
	useTUI        bool
	debugRecords  bool
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest posts from one timeline",
	Long: `Harvest posts from a profile, hashtag, search or the home timeline.

Exactly one of --profile, --hashtag or --query selects the timeline; with
none of them the home timeline is harvested. The session ends when
--max-items posts are collected or the timeline stops growing.

Targets already listed in the ledger are skipped unless --force is given.`,
	Example: `  # Latest 100 posts mentioning golang
  xscraper harvest --query golang --max-items 100

  # Top posts of a hashtag as CSV
  xscraper harvest --hashtag gophercon --top --format csv

  # A profile timeline into SQLite as well
  xscraper harvest --profile golang --storage sqlite --dsn ./posts.db

  # Replay recorded frames instead of opening a browser
  xscraper harvest --query golang --replay ./testdata/frames`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	f := harvestCmd.Flags()
	f.StringVar(&profileHandle, "profile", "", "profile handle to harvest")
	f.StringVar(&hashtag, "hashtag", "", "hashtag to harvest")
	f.StringVar(&searchQuery, "query", "", "search query to harvest")
	f.BoolVar(&latestTab, "latest", false, "use the latest tab of search results")
	f.BoolVar(&topTab, "top", false, "use the top tab of search results")
	f.IntVarP(&maxItems, "max-items", "n", 0, "number of posts to collect")
	f.BoolVar(&forceRun, "force", false, "harvest even if the ledger already holds the target")
	f.StringVarP(&outputDir, "output", "o", "", "output directory")
	f.StringVarP(&outputFormat, "format", "f", "", "output format (json, ndjson, csv)")
	f.StringVar(&storageDriver, "storage", "", "database sink (none, sqlite, mongo)")
	f.StringVar(&storageDSN, "dsn", "", "database connection string")
	f.StringVarP(&accountName, "account", "a", "", "use specific stored account")
	f.StringVar(&controlURL, "control-url", "", "attach to a running browser's DevTools endpoint")
	f.BoolVar(&headless, "headless", true, "run the launched browser headless")
	f.StringVar(&replayDir, "replay", "", "replay recorded HTML frames from a directory")
	f.BoolVar(&useTUI, "tui", false, "use interactive terminal UI")
	f.BoolVar(&debugRecords, "debug", false, "print every collected post")
}

// harvestFlags collects the flags that override configuration
func harvestFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{
		"max-items":   maxItems,
		"output":      outputDir,
		"format":      outputFormat,
		"storage":     storageDriver,
		"dsn":         storageDSN,
		"control-url": controlURL,
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	return flags
}

func runHarvest(cmd *cobra.Command, args []string) error {
	kind, identifier, err := session.Resolve(profileHandle, hashtag, searchQuery)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(harvestFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	tab := session.TabFromFlags(latestTab, topTab)
	if !latestTab && !topTab {
		if tab, err = session.ParseTab(cfg.Harvest.Tab); err != nil {
			return err
		}
	}
	target, err := session.New(session.Options{
		Kind:       kind,
		Identifier: identifier,
		Tab:        tab,
		MaxItems:   cfg.Harvest.MaxItems,
		BaseURL:    cfg.X.BaseURL,
	})
	if err != nil {
		ui.PrintError("Invalid target", err.Error())
		return err
	}

	factory, err := driverFactory(cfg, accountName, replayDir)
	if err != nil {
		ui.PrintError("Failed to prepare driver", err.Error())
		return err
	}

	sink, err := openSink(cfg)
	if err != nil {
		ui.PrintError("Failed to open storage", err.Error())
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pacer ratelimit.Pacer = ratelimit.NewJitterPacer(cfg.Pacing)
	var terminal *tui.TUI
	if useTUI {
		terminal = tui.NewTUI(1, cfg.Harvest.StagnationCeiling, cfg.Harvest.RefreshBudget)
		pacer = ui.HoldPacer{Pacer: pacer, Source: terminal}
	}

	h, err := newHarvester(cfg, factory, sink, pacer)
	if err != nil {
		ui.PrintError("Failed to open ledger", err.Error())
		return err
	}
	if terminal != nil {
		h.Observer = func(pool.Job) harvest.Observer { return terminal.Observer() }
	} else if !quiet {
		display := ui.NewProgressDisplay(os.Stdout, debugRecords)
		h.Observer = func(pool.Job) harvest.Observer { return display }
	}

	logger.WithField("target", target.Label()).Info("Starting harvest")
	job := pool.Job{Target: target, Force: forceRun}

	var res pool.Result
	if terminal != nil {
		res, err = runWithTUI(ctx, terminal, h, job)
		if err != nil {
			return err
		}
	} else {
		ui.PrintInfo("Target", target.Label())
		res = h.Run(ctx, job)
	}

	return reportResult(res)
}

// runWithTUI runs the job while the terminal UI owns the screen. Quitting
// the UI cancels the session.
func runWithTUI(ctx context.Context, terminal *tui.TUI, h *pool.Harvester, job pool.Job) (pool.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan pool.Result, 1)
	go func() {
		done <- h.Run(ctx, job)
	}()

	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	select {
	case res := <-done:
		terminal.Stop()
		<-tuiDone
		return res, nil
	case err := <-tuiDone:
		cancel()
		res := <-done
		if err != nil {
			logger.WithError(err).Error("TUI failed")
			return res, err
		}
		return res, nil
	}
}

func reportResult(res pool.Result) error {
	if res.Skipped {
		ui.PrintWarning("Target already harvested, use --force to run again")
		for _, out := range res.Outputs {
			ui.PrintInfo("Output", out)
		}
		return nil
	}

	for _, out := range res.Outputs {
		ui.PrintInfo("Saved", out)
	}
	if res.Harvest != nil {
		switch res.Harvest.Reason {
		case harvest.ReasonSuccess:
			ui.PrintSuccess(fmt.Sprintf("Harvested %d posts", len(res.Harvest.Records)))
		case harvest.ReasonStagnation:
			ui.PrintWarning(fmt.Sprintf("Timeline stopped growing after %d posts", len(res.Harvest.Records)))
		case harvest.ReasonCancelled:
			ui.PrintWarning(fmt.Sprintf("Cancelled with %d posts saved", len(res.Harvest.Records)))
		}
	}

	if res.Error != nil {
		logger.WithError(res.Error).Error("Harvest failed")
		ui.PrintError("HARVEST FAILED", res.Error.Error())
		return res.Error
	}
	if res.Harvest != nil && res.Harvest.Reason == harvest.ReasonCancelled {
		return errors.New("harvest cancelled")
	}
	return nil
}
