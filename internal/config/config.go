package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "xrayphasemap/internal/errors"
	"xrayphasemap/internal/plot"

	"github.com/adrg/xdg"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration structure.
// It names the application, sizes the log sink, and sets window, dialog and
// plot defaults.
type Config struct {
	Application struct {
		Name         string `yaml:"name"`         // Application name, also the log file stem
		Organization string `yaml:"organization"` // Organization name, settings namespace
		ID           string `yaml:"id"`           // Toolkit application ID (preferences storage)
	} `yaml:"application"`
	Logging struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate when the log file reaches this size
		MaxBackups int    `yaml:"max_backups"` // Rotated files kept
		Dir        string `yaml:"dir"`         // Overrides the per-user data directory
	} `yaml:"logging"`
	Window struct {
		X      int `yaml:"x"`      // Default position when no geometry is stored
		Y      int `yaml:"y"`      // Default position when no geometry is stored
		Width  int `yaml:"width"`  // Default size when no geometry is stored
		Height int `yaml:"height"` // Default size when no geometry is stored
	} `yaml:"window"`
	Settings struct {
		Backend string `yaml:"backend"` // file or preferences
	} `yaml:"settings"`
	Files struct {
		Filters     []string `yaml:"filters"`      // Glob patterns shown in the open dialog
		WatchOpened bool     `yaml:"watch_opened"` // Report external changes to the open file
	} `yaml:"files"`
	Plot struct {
		Width     int    `yaml:"width"`      // Figure width in pixels
		Height    int    `yaml:"height"`     // Figure height in pixels
		DPI       int    `yaml:"dpi"`        // Figure resolution
		FaceColor string `yaml:"face_color"` // Background, #rrggbb
		EdgeColor string `yaml:"edge_color"` // Frame, #rrggbb
	} `yaml:"plot"`
}

// DefaultPath returns the default config file location
// (<config home>/xrayphasemap/config.yaml).
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "xrayphasemap", "config.yaml")
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(DefaultPath())
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, apperrors.FromIO("error reading config file", path, apperrors.FileReadFailed, err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	tempCfg.Files.WatchOpened = cfg.Files.WatchOpened
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, apperrors.NewConfigError("error parsing config file", path, apperrors.InvalidConfig, err)
	}

	if tempCfg.Application.Name != "" {
		cfg.Application.Name = tempCfg.Application.Name
	}
	if tempCfg.Application.Organization != "" {
		cfg.Application.Organization = tempCfg.Application.Organization
	}
	if tempCfg.Application.ID != "" {
		cfg.Application.ID = tempCfg.Application.ID
	}

	if tempCfg.Logging.Level != "" {
		cfg.Logging.Level = tempCfg.Logging.Level
	}
	if tempCfg.Logging.MaxSizeMB != 0 {
		cfg.Logging.MaxSizeMB = tempCfg.Logging.MaxSizeMB
	}
	if tempCfg.Logging.MaxBackups != 0 {
		cfg.Logging.MaxBackups = tempCfg.Logging.MaxBackups
	}
	cfg.Logging.Dir = tempCfg.Logging.Dir

	if tempCfg.Window.Width != 0 || tempCfg.Window.Height != 0 {
		cfg.Window.Width = tempCfg.Window.Width
		cfg.Window.Height = tempCfg.Window.Height
	}
	if tempCfg.Window.X != 0 || tempCfg.Window.Y != 0 {
		cfg.Window.X = tempCfg.Window.X
		cfg.Window.Y = tempCfg.Window.Y
	}

	if tempCfg.Settings.Backend != "" {
		cfg.Settings.Backend = tempCfg.Settings.Backend
	}

	if tempCfg.Files.Filters != nil {
		cfg.Files.Filters = tempCfg.Files.Filters
	}
	cfg.Files.WatchOpened = tempCfg.Files.WatchOpened

	if tempCfg.Plot.Width != 0 {
		cfg.Plot.Width = tempCfg.Plot.Width
	}
	if tempCfg.Plot.Height != 0 {
		cfg.Plot.Height = tempCfg.Plot.Height
	}
	if tempCfg.Plot.DPI != 0 {
		cfg.Plot.DPI = tempCfg.Plot.DPI
	}
	if tempCfg.Plot.FaceColor != "" {
		cfg.Plot.FaceColor = tempCfg.Plot.FaceColor
	}
	if tempCfg.Plot.EdgeColor != "" {
		cfg.Plot.EdgeColor = tempCfg.Plot.EdgeColor
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", path, apperrors.InvalidConfig, err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Application.Name = "pyXRayPhaseMap"
	cfg.Application.Organization = "McGill University"
	cfg.Application.ID = "ca.mcgill.pyxrayphasemap"

	cfg.Logging.Level = "debug"
	cfg.Logging.MaxSizeMB = 1
	cfg.Logging.MaxBackups = 10

	cfg.Window.X = 200
	cfg.Window.Y = 200
	cfg.Window.Width = 400
	cfg.Window.Height = 400

	cfg.Settings.Backend = "file"

	cfg.Files.Filters = []string{}
	cfg.Files.WatchOpened = true

	cfg.Plot.Width = 600
	cfg.Plot.Height = 600
	cfg.Plot.DPI = 72
	cfg.Plot.FaceColor = "#ffffff"
	cfg.Plot.EdgeColor = "#000000"

	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewFileError("failed to create config directory", dir, apperrors.DirectoryCreateFailed, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return apperrors.Wrapf(err, "failed to marshal config for %s", path)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.FromIO("failed to write config file", path, apperrors.FileWriteFailed, err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return apperrors.New("nil config")
	}

	if strings.TrimSpace(c.Application.Name) == "" {
		return apperrors.NewConfigError("application name is required", "application.name", apperrors.InvalidConfig, nil)
	}
	if strings.ContainsAny(c.Application.Name, `/\`) {
		return apperrors.NewConfigError("application name must not contain path separators", "application.name", apperrors.InvalidConfig, nil)
	}
	if strings.TrimSpace(c.Application.Organization) == "" {
		return apperrors.NewConfigError("organization name is required", "application.organization", apperrors.InvalidConfig, nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return apperrors.NewConfigError(fmt.Sprintf("invalid log level %q", c.Logging.Level), "logging.level", apperrors.InvalidConfig, nil)
	}
	if c.Logging.MaxSizeMB < 1 {
		return apperrors.NewConfigError("log max size must be >= 1 MB", "logging.max_size_mb", apperrors.InvalidConfig, nil)
	}
	if c.Logging.MaxBackups < 0 {
		return apperrors.NewConfigError("log backups must be >= 0", "logging.max_backups", apperrors.InvalidConfig, nil)
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return apperrors.NewConfigError("window size must be positive", "window", apperrors.InvalidConfig, nil)
	}

	validBackends := map[string]bool{"file": true, "preferences": true}
	if !validBackends[c.Settings.Backend] {
		return apperrors.NewConfigError(fmt.Sprintf("invalid settings backend %q", c.Settings.Backend), "settings.backend", apperrors.InvalidConfig, nil)
	}

	for i, pattern := range c.Files.Filters {
		if pattern == "" {
			return apperrors.NewConfigError(fmt.Sprintf("filter %d: pattern is required", i), "files.filters", apperrors.InvalidConfig, nil)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return apperrors.NewConfigError(fmt.Sprintf("filter %d: bad pattern %q", i, pattern), "files.filters", apperrors.InvalidConfig, err)
		}
	}

	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return apperrors.NewConfigError("plot size must be positive", "plot", apperrors.InvalidConfig, nil)
	}
	if c.Plot.DPI <= 0 {
		return apperrors.NewConfigError("plot dpi must be positive", "plot.dpi", apperrors.InvalidConfig, nil)
	}
	for param, value := range map[string]string{"plot.face_color": c.Plot.FaceColor, "plot.edge_color": c.Plot.EdgeColor} {
		if _, err := plot.ParseHexColor(value); err != nil {
			return apperrors.NewConfigError("invalid color", param, apperrors.InvalidConfig, err)
		}
	}

	return nil
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Application.Name = "pyXRayPhaseMapTest"
	cfg.Application.ID = "ca.mcgill.pyxrayphasemap.test"
	cfg.Files.WatchOpened = false
	cfg.Plot.Width = 120
	cfg.Plot.Height = 90
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
