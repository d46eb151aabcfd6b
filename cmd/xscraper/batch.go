package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xscraper/internal/pool"
	"xscraper/pkg/config"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/session"
	"xscraper/pkg/ui"
)

var batchWorkers int

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <targets.yaml>",
	Short: "Harvest several timelines concurrently",
	Long: `Harvest every target listed in a YAML file, running up to --workers
browser sessions at once. Each entry names exactly one of profile, hashtag
or query, or sets home: true.

  targets:
    - profile: golang
    - hashtag: gophercon
      max_items: 200
    - query: "go generics"
      tab: top
    - home: true`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	f := batchCmd.Flags()
	f.IntVarP(&batchWorkers, "workers", "w", 0, "number of concurrent sessions")
	f.BoolVar(&forceRun, "force", false, "harvest targets the ledger already holds")
	f.StringVarP(&outputDir, "output", "o", "", "output directory")
	f.StringVarP(&outputFormat, "format", "f", "", "output format (json, ndjson, csv)")
	f.StringVar(&storageDriver, "storage", "", "database sink (none, sqlite, mongo)")
	f.StringVar(&storageDSN, "dsn", "", "database connection string")
	f.StringVarP(&accountName, "account", "a", "", "use specific stored account")
	f.StringVar(&controlURL, "control-url", "", "attach to a running browser's DevTools endpoint")
	f.StringVar(&replayDir, "replay", "", "replay recorded HTML frames from a directory")
}

// targetFile is the YAML layout read by the batch command
type targetFile struct {
	Targets []targetEntry `yaml:"targets"`
}

type targetEntry struct {
	Profile  string `yaml:"profile"`
	Hashtag  string `yaml:"hashtag"`
	Query    string `yaml:"query"`
	Home     bool   `yaml:"home"`
	Tab      string `yaml:"tab"`
	MaxItems int    `yaml:"max_items"`
}

// parseTargets reads the target list, filling tab and item budget from cfg
// where an entry leaves them out
func parseTargets(data []byte, cfg *config.Config) ([]session.Config, error) {
	var file targetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse targets: %w", err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets listed")
	}

	targets := make([]session.Config, 0, len(file.Targets))
	for i, e := range file.Targets {
		kind, id, err := session.Resolve(e.Profile, e.Hashtag, e.Query)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i+1, err)
		}
		if kind == session.TargetHome && !e.Home {
			return nil, fmt.Errorf("target %d: name a profile, hashtag or query, or set home: true", i+1)
		}

		tabName := e.Tab
		if tabName == "" {
			tabName = cfg.Harvest.Tab
		}
		tab, err := session.ParseTab(tabName)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i+1, err)
		}
		limit := e.MaxItems
		if limit <= 0 {
			limit = cfg.Harvest.MaxItems
		}

		target, err := session.New(session.Options{
			Kind:       kind,
			Identifier: id,
			Tab:        tab,
			MaxItems:   limit,
			BaseURL:    cfg.X.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i+1, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"workers":     batchWorkers,
		"output":      outputDir,
		"format":      outputFormat,
		"storage":     storageDriver,
		"dsn":         storageDSN,
		"control-url": controlURL,
	})
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read targets: %w", err)
	}
	targets, err := parseTargets(data, cfg)
	if err != nil {
		ui.PrintError("Invalid target file", err.Error())
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

	h, err := newHarvester(cfg, factory, sink, ratelimit.NewJitterPacer(cfg.Pacing))
	if err != nil {
		ui.PrintError("Failed to open ledger", err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintInfo("Targets", fmt.Sprintf("%d", len(targets)))
	ui.PrintInfo("Workers", fmt.Sprintf("%d", cfg.Batch.Workers))

	p := pool.New(ctx, cfg.Batch.Workers, h, logger.GetLogger())
	p.Start()
	go func() {
		defer p.Stop()
		for _, t := range targets {
			if err := p.Submit(pool.Job{Target: t, Force: forceRun}); err != nil {
				logger.WithError(err).WithField("target", t.Label()).Warn("Target not submitted")
				return
			}
		}
	}()

	tracker := ui.NewBatchTracker(len(targets), os.Stdout)
	var failed int
	for res := range p.Results() {
		switch {
		case res.Skipped:
			tracker.Skip()
		case res.Harvest != nil:
			tracker.Done(res.Harvest)
		default:
			tracker.Fail()
		}
		if res.Error != nil {
			failed++
			logger.WithError(res.Error).WithField("target", res.Job.Target.Label()).Error("Target failed")
		}
	}
	tracker.Summary()

	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(targets))
	}
	return nil
}
