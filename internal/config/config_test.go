package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"xrayphasemap/internal/config"
	apperrors "xrayphasemap/internal/errors"
	"xrayphasemap/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	err = tmpFile.Close()
	require.NoError(t, err)
	return tmpFile.Name()
}

const (
	validYAML = `
application:
  name: "PhaseMapLab"
  organization: "Test Lab"
logging:
  level: info
  max_backups: 3
window:
  width: 800
  height: 600
settings:
  backend: preferences
files:
  filters: ["*.txt", "*.{dat,msa}"]
  watch_opened: false
plot:
  dpi: 96
  face_color: "#f0f0f0"
`
	invalidSyntaxYAML = `
application:
  name: "PhaseMapLab
logging: # Missing closing quote
  level: [info
`
	invalidLevelYAML = `
logging:
  level: "chatty"
`
	invalidFilterYAML = `
files:
  filters: ["*.[txt"]
`
	invalidColorYAML = `
plot:
  edge_color: "black"
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		configFile := createTestYAML(t, validYAML)
		cfg, err := config.LoadConfigFile(configFile)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "PhaseMapLab", cfg.Application.Name)
		assert.Equal(t, "Test Lab", cfg.Application.Organization)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, 3, cfg.Logging.MaxBackups)
		assert.Equal(t, 1, cfg.Logging.MaxSizeMB, "unset fields keep defaults")
		assert.Equal(t, 800, cfg.Window.Width)
		assert.Equal(t, 600, cfg.Window.Height)
		assert.Equal(t, 200, cfg.Window.X)
		assert.Equal(t, "preferences", cfg.Settings.Backend)
		assert.Equal(t, []string{"*.txt", "*.{dat,msa}"}, cfg.Files.Filters)
		assert.False(t, cfg.Files.WatchOpened)
		assert.Equal(t, 96, cfg.Plot.DPI)
		assert.Equal(t, "#f0f0f0", cfg.Plot.FaceColor)
		assert.Equal(t, "#000000", cfg.Plot.EdgeColor)
	})

	t.Run("load non-existent file", func(t *testing.T) {
		nonExistentPath := filepath.Join(t.TempDir(), "does_not_exist.yaml")
		cfg, err := config.LoadConfigFile(nonExistentPath)

		require.NoError(t, err, "Loading non-existent file should return default config, not an error")
		require.NotNil(t, cfg)

		defaultCfg := config.New()
		assert.Equal(t, defaultCfg, cfg)
		assert.Equal(t, "pyXRayPhaseMap", cfg.Application.Name)
		assert.Equal(t, "McGill University", cfg.Application.Organization)
		assert.Equal(t, 400, cfg.Window.Width)
		assert.Equal(t, 400, cfg.Window.Height)
	})

	t.Run("load file with invalid YAML syntax", func(t *testing.T) {
		configFile := createTestYAML(t, invalidSyntaxYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing config file")
		assert.True(t, apperrors.IsInvalidConfig(err))
	})

	t.Run("load file with invalid log level", func(t *testing.T) {
		configFile := createTestYAML(t, invalidLevelYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("load file with invalid filter pattern", func(t *testing.T) {
		configFile := createTestYAML(t, invalidFilterYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad pattern")
	})

	t.Run("load file with invalid color", func(t *testing.T) {
		configFile := createTestYAML(t, invalidColorYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "plot.edge_color")
	})

	t.Run("unreadable config file", func(t *testing.T) {
		_, err := config.LoadConfigFile(t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
		assert.Equal(t, apperrors.FileReadFailed, apperrors.KindOf(err))
		assert.False(t, apperrors.IsInvalidConfig(err))
	})
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*config.Config) {}, wantErr: false},
		{name: "empty application name", mutate: func(c *config.Config) { c.Application.Name = " " }, wantErr: true},
		{name: "application name with separator", mutate: func(c *config.Config) { c.Application.Name = "a/b" }, wantErr: true},
		{name: "empty organization", mutate: func(c *config.Config) { c.Application.Organization = "" }, wantErr: true},
		{name: "zero log size", mutate: func(c *config.Config) { c.Logging.MaxSizeMB = 0 }, wantErr: true},
		{name: "negative backups", mutate: func(c *config.Config) { c.Logging.MaxBackups = -1 }, wantErr: true},
		{name: "zero backups", mutate: func(c *config.Config) { c.Logging.MaxBackups = 0 }, wantErr: false},
		{name: "bad window size", mutate: func(c *config.Config) { c.Window.Height = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *config.Config) { c.Settings.Backend = "registry" }, wantErr: true},
		{name: "empty filter", mutate: func(c *config.Config) { c.Files.Filters = []string{""} }, wantErr: true},
		{name: "brace filter", mutate: func(c *config.Config) { c.Files.Filters = []string{"*.{txt,csv}"} }, wantErr: false},
		{name: "zero dpi", mutate: func(c *config.Config) { c.Plot.DPI = 0 }, wantErr: true},
		{name: "short color", mutate: func(c *config.Config) { c.Plot.FaceColor = "#fff" }, wantErr: true},
		{name: "non-hex color", mutate: func(c *config.Config) { c.Plot.EdgeColor = "#00gg00" }, wantErr: true},
		{name: "upper case color", mutate: func(c *config.Config) { c.Plot.EdgeColor = "#A0B0C0" }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *config.Config
	assert.EqualError(t, cfg.Validate(), "nil config")
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.New()
	cfg.Application.Name = "Saved"
	cfg.Files.Filters = []string{"*.csv"}
	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveConfigUnwritablePath(t *testing.T) {
	err := config.SaveConfig(config.New(), testutils.UncreatablePath(t, "config.yaml"))
	require.Error(t, err)
	assert.Equal(t, apperrors.DirectoryCreateFailed, apperrors.KindOf(err))
}
