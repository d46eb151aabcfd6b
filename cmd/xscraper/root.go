package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"xscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xscraper",
	Short: "Incrementally harvest posts from X timelines",
	Long: `xscraper drives a real browser over an X timeline and collects every
post it renders, scrolling until a target count is reached or the timeline
stops producing new posts.

Features:
  - Profile, hashtag, search and home timelines
  - Deduplication across the virtualized timeline
  - Refresh and stagnation handling for stalled feeds
  - JSON, NDJSON and CSV export, plus optional SQLite or MongoDB sinks
  - Concurrent batch runs with a ledger of finished targets
  - Secure credential storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			logLevel = "error"
		}
		ui.SetNoColor(noColor)
		switch cmd.Name() {
		case "version", "help", "completion":
		default:
			if !quiet {
				ui.PrintLogo()
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.xscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "enable notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`xscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
