package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xscraper/pkg/config"
	"xscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (XSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.xscraper.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Session cookies are masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Budgets and pause ranges
  - Output and storage settings
  - Path accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# xscraper configuration file
#
# Every option can also be set through environment variables prefixed with
# XSCRAPER_, for example XSCRAPER_AUTH_TOKEN or XSCRAPER_MAX_ITEMS.

# Session cookies. Prefer 'xscraper auth login', which keeps them in the
# system keychain instead of this file.
x:
  auth_token: ""
  csrf_token: ""
  user_agent: ""
  base_url: "https://x.com"

browser:
  # DevTools endpoint of a running browser; empty launches a new one
  control_url: ""
  bin: ""
  headless: true
  no_sandbox: false
  viewport_width: 1280
  viewport_height: 2000
  navigation_timeout: 30s

harvest:
  # Posts to collect per target
  max_items: 50
  # Most recent cards considered per pass
  window: 20
  # Passes without growth before giving up
  stagnation_ceiling: 10
  # Empty passes before the page is reloaded
  empty_pass_threshold: 3
  # Reloads allowed between two productive passes
  refresh_budget: 2
  # latest or top
  tab: "latest"

pacing:
  record_min: 200ms
  record_max: 600ms
  empty_pass_min: 2500ms
  empty_pass_max: 4500ms
  scroll_min: 500ms
  scroll_max: 1200ms
  stale_min: 2s
  stale_max: 4s
  # Browser commands per minute; 0 disables the throttle
  actions_per_minute: 120
  burst: 5

retry:
  enabled: true
  max_attempts: 3
  base_delay: 2s
  max_delay: 30s

output:
  base_directory: "./output"
  # json, ndjson or csv
  format: "json"
  file_name_pattern: "{key}_posts.{ext}"
  overwrite: false

storage:
  # none, sqlite or mongo
  driver: "none"
  dsn: ""
  database: "xscraper"
  collection: "harvests"
  timeout: 10s

batch:
  workers: 2

notifications:
  enabled: true
  on_complete: true
  on_error: true
  # terminal, desktop or none
  notification_type: "terminal"

logging:
  # debug, info, warn, error
  level: "info"
  file: ""
  no_color: false
  quiet: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".xscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("%s already exists", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your session cookies with 'xscraper auth login'")
	fmt.Println("2. Run 'xscraper config validate' to check the configuration")
	fmt.Println("3. Start harvesting with 'xscraper harvest --query <terms>'")
	return nil
}

// masked returns a copy of cfg safe for display
func masked(cfg *config.Config) config.Config {
	out := *cfg
	out.X.AuthToken = maskSecret(out.X.AuthToken)
	out.X.CSRFToken = maskSecret(out.X.CSRFToken)
	out.Storage.DSN = maskSecret(out.Storage.DSN)
	return out
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	display := masked(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		return err
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (XSCRAPER_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
	return nil
}

// checkPaths reports directories the configuration needs but cannot create
func checkPaths(cfg *config.Config) []string {
	var problems []string
	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create output directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}
	return problems
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return err
	}

	if problems := checkPaths(cfg); len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("%d configuration errors", len(problems))
	}

	if !cfg.HasCredentials() {
		ui.PrintWarning("No session cookies in configuration; stored accounts or a logged-out session will be used")
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output: %s (%s)\n", cfg.Output.BaseDirectory, cfg.Output.Format)
	fmt.Printf("  Storage: %s\n", cfg.Storage.Driver)
	fmt.Printf("  Max items: %d\n", cfg.Harvest.MaxItems)
	fmt.Printf("  Stagnation ceiling: %d passes\n", cfg.Harvest.StagnationCeiling)
	fmt.Printf("  Refresh budget: %d\n", cfg.Harvest.RefreshBudget)
	fmt.Printf("  Throttle: %d actions/minute\n", cfg.Pacing.ActionsPerMinute)
	fmt.Printf("  Batch workers: %d\n", cfg.Batch.Workers)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
