package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes a single release-schedule ICS feed.
type FeedConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PixelsConfig is the per-zoom pixels-per-column table.
type PixelsConfig struct {
	Day   float64 `yaml:"day" json:"day"`
	Week  float64 `yaml:"week" json:"week"`
	Month float64 `yaml:"month" json:"month"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to resolve "today" (e.g. "UTC",
	// "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday is treated as the first day of the
	// week, for both week columns and the calendar grid. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// LogLevel is the minimum log level ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic feed refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how far into the future recurring release trains are
	// expanded when importing feeds.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// PixelsPerColumn is the column width per zoom level.
	PixelsPerColumn PixelsConfig `yaml:"pixels_per_column" json:"pixels_per_column"`

	// MinBarWidth is the minimum bar width in pixels; zero-length release
	// spans still render at this width.
	MinBarWidth float64 `yaml:"min_bar_width" json:"min_bar_width"`

	// Feeds is the list of subscribed release-schedule sources.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// ReleasesFile, if set, points at a local JSON file of releases
	// (id/startDate/endDate/label/statusCategory records) merged into the
	// feed results on every refresh. Useful for hand-curated entries that
	// have no upstream calendar.
	ReleasesFile string `yaml:"releases_file,omitempty" json:"releases_file,omitempty"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		WeekStart:   "monday",
		LogLevel:    "info",
		RefreshCron: "*/15 * * * *",
		HorizonDays: 180,
		PixelsPerColumn: PixelsConfig{
			Day:   40,
			Week:  100,
			Month: 150,
		},
		MinBarWidth: 10,
		Feeds:       []FeedConfig{},
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	// WeekStart default & validation.
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	case "":
		c.WeekStart = "monday"
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 180
	}
	if c.PixelsPerColumn.Day <= 0 {
		c.PixelsPerColumn.Day = 40
	}
	if c.PixelsPerColumn.Week <= 0 {
		c.PixelsPerColumn.Week = 100
	}
	if c.PixelsPerColumn.Month <= 0 {
		c.PixelsPerColumn.Month = 150
	}
	if c.MinBarWidth <= 0 {
		c.MinBarWidth = 10
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".relboard-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
