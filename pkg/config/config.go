package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv
const EnvPrefix = "XSCRAPER_"

// Config holds all configuration options for the harvester
type Config struct {
	X             XConfig            `yaml:"x" json:"x"`
	Browser       BrowserConfig      `yaml:"browser" json:"browser"`
	Harvest       HarvestConfig      `yaml:"harvest" json:"harvest"`
	Pacing        PacingConfig       `yaml:"pacing" json:"pacing"`
	Retry         RetryConfig        `yaml:"retry" json:"retry"`
	Output        OutputConfig       `yaml:"output" json:"output"`
	Storage       StorageConfig      `yaml:"storage" json:"storage"`
	Batch         BatchConfig        `yaml:"batch" json:"batch"`
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`
	Logging       LoggingConfig      `yaml:"logging" json:"logging"`
}

// XConfig holds the session cookies and site settings
type XConfig struct {
	AuthToken string `yaml:"auth_token" json:"auth_token"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
}

// BrowserConfig controls how the automation backend is reached or launched
type BrowserConfig struct {
	// ControlURL attaches to an already running browser; empty launches one
	ControlURL        string        `yaml:"control_url" json:"control_url"`
	Bin               string        `yaml:"bin" json:"bin"`
	Headless          bool          `yaml:"headless" json:"headless"`
	NoSandbox         bool          `yaml:"no_sandbox" json:"no_sandbox"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

// HarvestConfig holds the controller budgets
type HarvestConfig struct {
	MaxItems           int    `yaml:"max_items" json:"max_items"`
	Window             int    `yaml:"window" json:"window"`
	StagnationCeiling  int    `yaml:"stagnation_ceiling" json:"stagnation_ceiling"`
	EmptyPassThreshold int    `yaml:"empty_pass_threshold" json:"empty_pass_threshold"`
	RefreshBudget      int    `yaml:"refresh_budget" json:"refresh_budget"`
	Tab                string `yaml:"tab" json:"tab"`
}

// PacingConfig holds the randomized pause ranges and the command throttle
type PacingConfig struct {
	RecordMin        time.Duration `yaml:"record_min" json:"record_min"`
	RecordMax        time.Duration `yaml:"record_max" json:"record_max"`
	EmptyPassMin     time.Duration `yaml:"empty_pass_min" json:"empty_pass_min"`
	EmptyPassMax     time.Duration `yaml:"empty_pass_max" json:"empty_pass_max"`
	ScrollMin        time.Duration `yaml:"scroll_min" json:"scroll_min"`
	ScrollMax        time.Duration `yaml:"scroll_max" json:"scroll_max"`
	StaleMin         time.Duration `yaml:"stale_min" json:"stale_min"`
	StaleMax         time.Duration `yaml:"stale_max" json:"stale_max"`
	ActionsPerMinute int           `yaml:"actions_per_minute" json:"actions_per_minute"`
	Burst            int           `yaml:"burst" json:"burst"`
}

// RetryConfig bounds retries of navigation commands
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// OutputConfig holds export settings
type OutputConfig struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	Format          string `yaml:"format" json:"format"`
	FileNamePattern string `yaml:"file_name_pattern" json:"file_name_pattern"`
	Overwrite       bool   `yaml:"overwrite" json:"overwrite"`
}

// StorageConfig selects an optional database sink
type StorageConfig struct {
	Driver     string        `yaml:"driver" json:"driver"`
	DSN        string        `yaml:"dsn" json:"dsn"`
	Database   string        `yaml:"database" json:"database"`
	Collection string        `yaml:"collection" json:"collection"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// BatchConfig holds settings for concurrent multi-target runs
type BatchConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
	// Quiet suppresses console output when a file is configured
	Quiet bool `yaml:"quiet" json:"quiet"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		X: XConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			BaseURL:   "https://x.com",
		},
		Browser: BrowserConfig{
			Headless:          true,
			ViewportWidth:     1280,
			ViewportHeight:    2000,
			NavigationTimeout: 30 * time.Second,
		},
		Harvest: HarvestConfig{
			MaxItems:           50,
			Window:             20,
			StagnationCeiling:  10,
			EmptyPassThreshold: 3,
			RefreshBudget:      2,
			Tab:                "latest",
		},
		Pacing: PacingConfig{
			RecordMin:        200 * time.Millisecond,
			RecordMax:        600 * time.Millisecond,
			EmptyPassMin:     2500 * time.Millisecond,
			EmptyPassMax:     4500 * time.Millisecond,
			ScrollMin:        500 * time.Millisecond,
			ScrollMax:        1200 * time.Millisecond,
			StaleMin:         2 * time.Second,
			StaleMax:         4 * time.Second,
			ActionsPerMinute: 120,
			Burst:            5,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory:   "./output",
			Format:          "json",
			FileNamePattern: "{key}_posts.{ext}",
			Overwrite:       false,
		},
		Storage: StorageConfig{
			Driver:     "none",
			Database:   "xscraper",
			Collection: "harvests",
			Timeout:    10 * time.Second,
		},
		Batch: BatchConfig{
			Workers: 2,
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides fields from XSCRAPER_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
	setBool := func(name string, dst *bool) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = b
	}

	setString("AUTH_TOKEN", &c.X.AuthToken)
	setString("CSRF_TOKEN", &c.X.CSRFToken)
	setString("USER_AGENT", &c.X.UserAgent)
	setString("BASE_URL", &c.X.BaseURL)

	setString("CONTROL_URL", &c.Browser.ControlURL)
	setString("BROWSER_BIN", &c.Browser.Bin)
	setBool("HEADLESS", &c.Browser.Headless)

	setInt("MAX_ITEMS", &c.Harvest.MaxItems)
	setString("TAB", &c.Harvest.Tab)
	setInt("ACTIONS_PER_MINUTE", &c.Pacing.ActionsPerMinute)

	setString("OUTPUT_DIR", &c.Output.BaseDirectory)
	setString("OUTPUT_FORMAT", &c.Output.Format)

	setString("STORAGE_DRIVER", &c.Storage.Driver)
	setString("STORAGE_DSN", &c.Storage.DSN)

	setInt("WORKERS", &c.Batch.Workers)
	setBool("NOTIFICATIONS_ENABLED", &c.Notifications.Enabled)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".xscraper.yaml",
		".xscraper.yml",
		filepath.Join(home, ".config", "xscraper", "config.yaml"),
		filepath.Join(home, ".config", "xscraper", "config.yml"),
		filepath.Join(home, ".xscraper.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid. Credentials are not
// required here: replaying recorded frames needs none.
func (c *Config) Validate() error {
	var errs []error

	if c.X.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}

	if c.Harvest.MaxItems <= 0 {
		errs = append(errs, errors.New("max items must be positive"))
	}
	if c.Harvest.Window <= 0 {
		errs = append(errs, errors.New("window must be positive"))
	}
	if c.Harvest.StagnationCeiling <= 0 {
		errs = append(errs, errors.New("stagnation ceiling must be positive"))
	}
	if c.Harvest.EmptyPassThreshold <= 0 {
		errs = append(errs, errors.New("empty pass threshold must be positive"))
	}
	if c.Harvest.RefreshBudget < 0 {
		errs = append(errs, errors.New("refresh budget cannot be negative"))
	}
	switch strings.ToLower(c.Harvest.Tab) {
	case "latest", "top":
	default:
		errs = append(errs, fmt.Errorf("invalid tab %q", c.Harvest.Tab))
	}

	ranges := []struct {
		name     string
		min, max time.Duration
	}{
		{"record", c.Pacing.RecordMin, c.Pacing.RecordMax},
		{"empty pass", c.Pacing.EmptyPassMin, c.Pacing.EmptyPassMax},
		{"scroll", c.Pacing.ScrollMin, c.Pacing.ScrollMax},
		{"stale", c.Pacing.StaleMin, c.Pacing.StaleMax},
	}
	for _, r := range ranges {
		if r.min < 0 || r.max < r.min {
			errs = append(errs, fmt.Errorf("invalid %s pause range [%s, %s]", r.name, r.min, r.max))
		}
	}
	if c.Pacing.ActionsPerMinute < 0 {
		errs = append(errs, errors.New("actions per minute cannot be negative"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.FileNamePattern == "" {
		errs = append(errs, errors.New("file name pattern is required"))
	}
	switch strings.ToLower(c.Output.Format) {
	case "json", "ndjson", "csv":
	default:
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "", "none":
	case "sqlite", "mongo":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage driver %s requires a dsn", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage driver %q", c.Storage.Driver))
	}

	if c.Batch.Workers <= 0 {
		errs = append(errs, errors.New("batch workers must be positive"))
	}
	if c.Batch.Workers > 8 {
		errs = append(errs, errors.New("batch workers should not exceed 8"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{"terminal": true, "desktop": true, "none": true}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	return errors.Join(errs...)
}

// HasCredentials reports whether both session cookies are set
func (c *Config) HasCredentials() bool {
	return c.X.AuthToken != "" && c.X.CSRFToken != ""
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags applies flag values set on the command line
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["auth-token"].(string); ok && v != "" {
		c.X.AuthToken = v
	}
	if v, ok := flags["csrf-token"].(string); ok && v != "" {
		c.X.CSRFToken = v
	}
	if v, ok := flags["control-url"].(string); ok && v != "" {
		c.Browser.ControlURL = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["max-items"].(int); ok && v > 0 {
		c.Harvest.MaxItems = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["format"].(string); ok && v != "" {
		c.Output.Format = v
	}
	if v, ok := flags["storage"].(string); ok && v != "" {
		c.Storage.Driver = v
	}
	if v, ok := flags["dsn"].(string); ok && v != "" {
		c.Storage.DSN = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Batch.Workers = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: command line flags > environment > .env files > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xscraper.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
