// Package app bootstraps the desktop application: it creates the toolkit
// application, starts file logging in the per-user data directory, opens the
// settings store and runs the main window until it closes.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"xrayphasemap/internal/config"
	apperrors "xrayphasemap/internal/errors"
	"xrayphasemap/internal/gui"
	"xrayphasemap/internal/log"
	"xrayphasemap/internal/settings"
	"xrayphasemap/internal/watch"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/adrg/xdg"
)

// Context is the explicit application state passed to the bootstrap steps.
type Context struct {
	Config       *config.Config
	Organization string
	Application  string

	Fyne    fyne.App
	Store   settings.Store
	Watcher *watch.Watcher

	// DataDir and LogPath are set by StartLogging.
	DataDir string
	LogPath string

	settingsPath string
}

// Option customizes CreateApplication.
type Option func(*Context)

// WithFyneApp uses a instead of a new toolkit application.
func WithFyneApp(a fyne.App) Option {
	return func(c *Context) {
		c.Fyne = a
	}
}

// WithSettingsPath overrides the settings file location of the file backend.
func WithSettingsPath(path string) Option {
	return func(c *Context) {
		c.settingsPath = path
	}
}

// CreateApplication builds the toolkit application and records the
// organization and application names used as the settings namespace.
func CreateApplication(cfg *config.Config, opts ...Option) *Context {
	if cfg == nil {
		cfg = config.New()
	}
	c := &Context{
		Config:       cfg,
		Organization: cfg.Application.Organization,
		Application:  cfg.Application.Name,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Fyne == nil {
		c.Fyne = fyneapp.NewWithID(cfg.Application.ID)
	}
	if c.settingsPath == "" {
		c.settingsPath = settings.DefaultFilePath(c.Organization, c.Application)
	}
	return c
}

// DataDir returns <data home>/<organization>/<application>, unless the
// configuration names a log directory.
func DataDir(cfg *config.Config) string {
	if cfg.Logging.Dir != "" {
		return cfg.Logging.Dir
	}
	return filepath.Join(xdg.DataHome, cfg.Application.Organization, cfg.Application.Name)
}

// LogPath returns the log file inside DataDir.
func LogPath(cfg *config.Config) string {
	return filepath.Join(DataDir(cfg), cfg.Application.Name+".log")
}

// StartLogging creates the data directory and attaches the rotating log file
// to the process-wide logger. Failing to create the directory is fatal.
func StartLogging(c *Context) error {
	dir := DataDir(c.Config)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewFileError("cannot create data directory", dir, apperrors.DirectoryCreateFailed, err)
	}

	c.DataDir = dir
	c.LogPath = LogPath(c.Config)
	log.Configure(
		log.WithName(c.Application),
		log.WithLevel(c.Config.Logging.Level),
		log.WithRotation(log.Rotation{
			MaxSizeMB:  c.Config.Logging.MaxSizeMB,
			MaxBackups: c.Config.Logging.MaxBackups,
		}),
		log.WithFile(c.LogPath),
	)

	log.Info("Starting %s", c.Application)
	log.Debugf("data location: %s", xdg.DataHome)
	log.Debugf("home location: %s", xdg.Home)
	log.Debugf("temp location: %s", os.TempDir())
	log.Debugf("cache location: %s", xdg.CacheHome)
	log.Debugf("config location: %s", xdg.ConfigHome)
	log.Debugf("log file: %s", c.LogPath)
	return nil
}

// OpenSettings opens the store selected by the configuration. An unreadable
// settings file falls back to the toolkit preferences.
func OpenSettings(c *Context) settings.Store {
	if c.Config.Settings.Backend == "preferences" {
		c.Store = settings.NewPreferencesStore(c.Organization, c.Application, c.Fyne.Preferences())
		return c.Store
	}

	store, err := settings.OpenFileStore(c.Organization, c.Application, c.settingsPath)
	if err != nil {
		log.LogWithError(err).Warn("Falling back to preferences for settings")
		c.Store = settings.NewPreferencesStore(c.Organization, c.Application, c.Fyne.Preferences())
		return c.Store
	}
	c.Store = store
	return c.Store
}

// Run bootstraps the application, shows the main window and blocks in the
// event loop. It returns the process exit code.
func Run(c *Context) int {
	if err := StartLogging(c); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer Close(c)

	OpenSettings(c)

	if c.Config.Files.WatchOpened {
		w, err := watch.New()
		if err != nil {
			log.LogWithError(err).Warn("External change detection disabled")
		} else if err := w.Start(); err != nil {
			log.LogWithError(err).Warn("External change detection disabled")
			w.Stop()
		} else {
			c.Watcher = w
		}
	}

	mw := gui.NewMainWindow(c.Fyne, gui.Options{
		Config:  c.Config,
		Store:   c.Store,
		Watcher: c.Watcher,
	})
	mw.Show()
	c.Fyne.Run()

	log.Info("%s exiting", c.Application)
	return 0
}

// Close stops the watcher and closes the log file.
func Close(c *Context) {
	if c.Watcher != nil {
		c.Watcher.Stop()
		c.Watcher = nil
	}
	if err := log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing log: %v\n", err)
	}
}
