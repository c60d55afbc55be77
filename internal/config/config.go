// Package config loads scanner settings from YAML and the environment.
//
// Load order: defaults, then the YAML file, then ApplyDefaults for any
// zeroed fields, then environment overrides, then Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/carsond2001/map-scanner/internal/storage"
	"gopkg.in/yaml.v3"
)

// Archive file names inside the output folder
const (
	DefaultOutputFolder = "mapframe_archive"
	MapsFileName        = "map_archive.db"
	SignsFileName       = "sign_archive.sqlite"
)

// Config holds the application configuration
type Config struct {
	BaseDir      string          `yaml:"base_dir"`
	OutputFolder string          `yaml:"output_folder"`
	TickRate     int             `yaml:"tick_rate"` // driving signals per second
	WorldFile    string          `yaml:"world_file"`
	Logging      LoggingConfig   `yaml:"logging"`
	Storage      storage.Options `yaml:"storage"`
	Webhook      WebhookConfig   `yaml:"webhook"`
	Maps         MapsConfig      `yaml:"maps"`
	Signs        SignsConfig     `yaml:"signs"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string         `yaml:"level"`  // debug, info, warn, error
	Format   string         `yaml:"format"` // text, json
	Dir      string         `yaml:"dir"`
	File     bool           `yaml:"file"` // also write a rotating log file
	Rotation RotationConfig `yaml:"rotation"`
}

// RotationConfig holds log rotation settings
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`    // MB
	MaxBackups int  `yaml:"max_backups"` // number of files
	MaxAge     int  `yaml:"max_age"`     // days
	Compress   bool `yaml:"compress"`
}

// WebhookConfig holds settings shared by both notification paths
type WebhookConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	Username string        `yaml:"username"`
}

// MapsConfig controls the item frame scanner
type MapsConfig struct {
	Enabled           bool   `yaml:"enabled"`
	WebhookURL        string `yaml:"webhook_url"`
	Radius            int    `yaml:"radius"`
	ScanIntervalTicks int    `yaml:"scan_interval_ticks"`
	MaxPerScan        int    `yaml:"max_per_scan"`
	RescanOnEnable    bool   `yaml:"rescan_on_enable"`
}

// SignsConfig controls the sign scanner
type SignsConfig struct {
	Enabled           bool   `yaml:"enabled"`
	WebhookURL        string `yaml:"webhook_url"`
	Radius            int    `yaml:"radius"`
	VerticalRange     int    `yaml:"vertical_range"`
	ScanIntervalTicks int    `yaml:"scan_interval_ticks"`
	MaxPerScan        int    `yaml:"max_per_scan"`
	IncludeBack       bool   `yaml:"include_back"`
	RescanOnEnable    bool   `yaml:"rescan_on_enable"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseDir:      ".",
		OutputFolder: DefaultOutputFolder,
		TickRate:     20,
		WorldFile:    "world.yml",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    "logs",
			Rotation: RotationConfig{
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		Storage: storage.DefaultOptions(),
		Webhook: WebhookConfig{
			Timeout:  30 * time.Second,
			Username: "MapRgbScanner",
		},
		Maps: MapsConfig{
			Enabled:           true,
			Radius:            255,
			ScanIntervalTicks: 3,
			MaxPerScan:        64,
			RescanOnEnable:    true,
		},
		Signs: SignsConfig{
			Enabled:           true,
			Radius:            64,
			VerticalRange:     48,
			ScanIntervalTicks: 10,
			MaxPerScan:        25,
			IncludeBack:       true,
			RescanOnEnable:    true,
		},
	}
}

// ApplyDefaults fills in missing values with defaults.
// Booleans are left alone; their defaults come from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()

	if c.BaseDir == "" {
		c.BaseDir = d.BaseDir
	}
	if strings.TrimSpace(c.OutputFolder) == "" {
		c.OutputFolder = d.OutputFolder
	}
	if c.TickRate == 0 {
		c.TickRate = d.TickRate
	}

	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = d.Logging.Dir
	}
	if c.Logging.Rotation.MaxSize == 0 {
		c.Logging.Rotation.MaxSize = d.Logging.Rotation.MaxSize
	}
	if c.Logging.Rotation.MaxBackups == 0 {
		c.Logging.Rotation.MaxBackups = d.Logging.Rotation.MaxBackups
	}
	if c.Logging.Rotation.MaxAge == 0 {
		c.Logging.Rotation.MaxAge = d.Logging.Rotation.MaxAge
	}

	c.Storage.ApplyDefaults()

	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = d.Webhook.Timeout
	}
	if c.Webhook.Username == "" {
		c.Webhook.Username = d.Webhook.Username
	}

	if c.Maps.Radius == 0 {
		c.Maps.Radius = d.Maps.Radius
	}
	if c.Maps.ScanIntervalTicks == 0 {
		c.Maps.ScanIntervalTicks = d.Maps.ScanIntervalTicks
	}
	if c.Maps.MaxPerScan == 0 {
		c.Maps.MaxPerScan = d.Maps.MaxPerScan
	}

	if c.Signs.Radius == 0 {
		c.Signs.Radius = d.Signs.Radius
	}
	if c.Signs.VerticalRange == 0 {
		c.Signs.VerticalRange = d.Signs.VerticalRange
	}
	if c.Signs.ScanIntervalTicks == 0 {
		c.Signs.ScanIntervalTicks = d.Signs.ScanIntervalTicks
	}
	if c.Signs.MaxPerScan == 0 {
		c.Signs.MaxPerScan = d.Signs.MaxPerScan
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// MAPSCANNER_WEBHOOK_URL sets both webhooks unless the per-scanner
// variable is also present.
func (c *Config) ApplyEnvOverrides() {
	if v, ok := os.LookupEnv("MAPSCANNER_OUTPUT_FOLDER"); ok {
		c.OutputFolder = v
	}
	if v, ok := os.LookupEnv("MAPSCANNER_WEBHOOK_URL"); ok {
		c.Maps.WebhookURL = v
		c.Signs.WebhookURL = v
	}
	if v, ok := os.LookupEnv("MAPSCANNER_MAPS_WEBHOOK_URL"); ok {
		c.Maps.WebhookURL = v
	}
	if v, ok := os.LookupEnv("MAPSCANNER_SIGNS_WEBHOOK_URL"); ok {
		c.Signs.WebhookURL = v
	}
	if v, ok := os.LookupEnv("MAPSCANNER_LOG_LEVEL"); ok {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.TickRate < 1 {
		errs = append(errs, fmt.Errorf("tick_rate must be at least 1, got %d", c.TickRate))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if c.Webhook.Timeout < 0 {
		errs = append(errs, errors.New("webhook timeout cannot be negative"))
	}

	positive := []struct {
		name  string
		value int
	}{
		{"maps.radius", c.Maps.Radius},
		{"maps.scan_interval_ticks", c.Maps.ScanIntervalTicks},
		{"maps.max_per_scan", c.Maps.MaxPerScan},
		{"signs.radius", c.Signs.Radius},
		{"signs.vertical_range", c.Signs.VerticalRange},
		{"signs.scan_interval_ticks", c.Signs.ScanIntervalTicks},
		{"signs.max_per_scan", c.Signs.MaxPerScan},
	}
	for _, p := range positive {
		if p.value < 1 {
			errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", p.name, p.value))
		}
	}

	return errors.Join(errs...)
}

// OutputDir is the directory both archives live in
func (c *Config) OutputDir() string {
	folder := strings.TrimSpace(c.OutputFolder)
	if folder == "" {
		folder = DefaultOutputFolder
	}
	return filepath.Join(c.BaseDir, folder)
}

// MapsPath is the map archive file
func (c *Config) MapsPath() string {
	return filepath.Join(c.OutputDir(), MapsFileName)
}

// SignsPath is the sign archive file
func (c *Config) SignsPath() string {
	return filepath.Join(c.OutputDir(), SignsFileName)
}

// TickInterval is the wall-clock time between driving signals
func (c *Config) TickInterval() time.Duration {
	if c.TickRate < 1 {
		return time.Second
	}
	return time.Second / time.Duration(c.TickRate)
}

// Load reads path over the defaults and runs the full lifecycle.
// A missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.ApplyDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Live holds the active configuration and swaps it on reload.
// Readers must treat the returned *Config as immutable.
type Live struct {
	path string
	mu   sync.RWMutex
	cfg  *Config
}

// NewLive wraps cfg, reloading from path on Reload
func NewLive(path string, cfg *Config) *Live {
	return &Live{path: path, cfg: cfg}
}

// Get returns the active configuration
func (l *Live) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Set replaces the active configuration
func (l *Live) Set(cfg *Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
}

// Reload re-reads the file. On error the active configuration is kept.
func (l *Live) Reload() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return l.Get(), err
	}
	l.Set(cfg)
	return cfg, nil
}
