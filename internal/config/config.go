package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/wildcard-tally/internal/export"
	"github.com/ramonehamilton/wildcard-tally/internal/logging"
	"github.com/ramonehamilton/wildcard-tally/internal/mtga/moxfield"
	"github.com/ramonehamilton/wildcard-tally/internal/mtga/wildcards"
	"github.com/ramonehamilton/wildcard-tally/internal/pagesource"
)

// Config represents the application configuration.
type Config struct {
	// Deck catalog to read from
	Catalog CatalogConfig `toml:"catalog"`

	// Page fetching
	Fetch FetchConfig `toml:"fetch"`

	// Tally rules
	Tally TallyConfig `toml:"tally"`

	// Report output
	Output OutputConfig `toml:"output"`

	// Logging
	Log LogConfig `toml:"log"`
}

// CatalogConfig selects whose decks are read.
type CatalogConfig struct {
	Owner      string `toml:"owner"`        // Profile whose decks are tallied
	StartPage  int    `toml:"start_page"`   // First search page (1-based)
	EndPage    int    `toml:"end_page"`     // Last search page, inclusive
	PageSize   int    `toml:"page_size"`    // Decks per search page
	APIBaseURL string `toml:"api_base_url"` // Catalog API host
}

// FetchConfig contains page fetching settings.
type FetchConfig struct {
	Provider          string `toml:"provider"`           // "browser" or "http"
	ChunkSize         int    `toml:"chunk_size"`         // URLs per worker session
	MaxWorkers        int    `toml:"max_workers"`        // Concurrent sessions
	Headless          bool   `toml:"headless"`           // Run Chrome headless
	NavigationTimeout string `toml:"navigation_timeout"` // Per-page timeout (e.g., "30s")
	UserAgent         string `toml:"user_agent"`         // User-Agent header
	ChromePath        string `toml:"chrome_path"`        // Chrome binary override
}

// TallyConfig contains aggregation rules.
type TallyConfig struct {
	UnknownFormatPolicy string `toml:"unknown_format_policy"` // "other", "drop" or "error"
}

// OutputConfig contains report settings.
type OutputConfig struct {
	Dir       string `toml:"dir"`       // Directory reports are written to
	Format    string `toml:"format"`    // "csv" or "json"
	Overwrite bool   `toml:"overwrite"` // Replace existing reports
	Chart     bool   `toml:"chart"`     // Also render an HTML chart of the totals
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level       string `toml:"level"`       // debug, info, warn, error
	Development bool   `toml:"development"` // Console output instead of JSON
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Owner:      "",
			StartPage:  1,
			EndPage:    5,
			PageSize:   moxfield.DefaultPageSize,
			APIBaseURL: moxfield.DefaultAPIBaseURL,
		},
		Fetch: FetchConfig{
			Provider:          string(pagesource.KindBrowser),
			ChunkSize:         10,
			MaxWorkers:        1,
			Headless:          true,
			NavigationTimeout: "30s",
			UserAgent:         pagesource.DefaultUserAgent,
		},
		Tally: TallyConfig{
			UnknownFormatPolicy: string(wildcards.PolicyOther),
		},
		Output: OutputConfig{
			Dir:       "output",
			Format:    string(export.FormatCSV),
			Overwrite: true,
			Chart:     false,
		},
		Log: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// DefaultPath returns the per-user configuration file path.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".wildcard-tally", "config.toml"), nil
}

// Load loads the configuration from path. Settings missing from the file keep their
// defaults; a missing file yields the default configuration.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Apply overlays the non-zero fields of overrides onto c.
func (c *Config) Apply(overrides Config) error {
	if err := mergo.Merge(c, overrides, mergo.WithOverride); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Catalog.Owner == "" {
		return fmt.Errorf("catalog owner is required")
	}
	if c.Catalog.StartPage < 1 {
		return fmt.Errorf("start page must be at least 1: %d", c.Catalog.StartPage)
	}
	if c.Catalog.EndPage < c.Catalog.StartPage {
		return fmt.Errorf("end page %d is before start page %d", c.Catalog.EndPage, c.Catalog.StartPage)
	}
	if c.Catalog.PageSize < 1 {
		return fmt.Errorf("page size must be positive: %d", c.Catalog.PageSize)
	}

	if _, err := pagesource.ParseKind(c.Fetch.Provider); err != nil {
		return err
	}
	if c.Fetch.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be positive: %d", c.Fetch.ChunkSize)
	}
	if c.Fetch.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be positive: %d", c.Fetch.MaxWorkers)
	}
	if _, err := time.ParseDuration(c.Fetch.NavigationTimeout); err != nil {
		return fmt.Errorf("invalid navigation timeout %q: %w", c.Fetch.NavigationTimeout, err)
	}

	if _, err := wildcards.ParseUnknownFormatPolicy(c.Tally.UnknownFormatPolicy); err != nil {
		return err
	}

	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return err
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// GetNavigationTimeout returns the navigation timeout as a duration.
func (c *Config) GetNavigationTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Fetch.NavigationTimeout)
}
