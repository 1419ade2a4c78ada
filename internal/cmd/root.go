package cmd

import (
	"fmt"
	"io"
	"os"

	"xrayphasemap/internal/app"
	"xrayphasemap/internal/config"
	apperrors "xrayphasemap/internal/errors"
	"xrayphasemap/internal/log"
	"xrayphasemap/internal/settings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// ExitError carries a non-zero exit code out of Execute.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// runner starts the GUI; tests replace it.
var runner = func(cfg *config.Config) int {
	return app.Run(app.CreateApplication(cfg))
}

// NewRootCmd creates the root command. Without a subcommand it runs the GUI.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		debug   bool
	)

	loadConfig := func() (*config.Config, error) {
		if cfgFile != "" {
			return config.LoadConfigFile(cfgFile)
		}
		return config.LoadConfig()
	}

	rootCmd := &cobra.Command{
		Use:           "xrayphasemap",
		Short:         "Desktop shell of the x-ray phase map viewer",
		Long:          `pyXRayPhaseMap shows a text editor next to sample plots and remembers its window geometry.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				log.SetDebug(true)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if debug {
				cfg.Logging.Level = "debug"
			}
			if code := runner(cfg); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newPathsCmd(loadConfig))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xrayphasemap %s\n", Version)
		},
	}
}

func newPathsCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the data, config, settings and log locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:   %s\n", config.DefaultPath())
			fmt.Fprintf(out, "settings: %s\n", settings.DefaultFilePath(cfg.Application.Organization, cfg.Application.Name))
			fmt.Fprintf(out, "data:     %s\n", app.DataDir(cfg))
			fmt.Fprintf(out, "log:      %s\n", app.LogPath(cfg))
			fmt.Fprintf(out, "cache:    %s\n", xdg.CacheHome)
			return nil
		},
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return exitCode(NewRootCmd().Execute(), os.Stderr)
}

// exitCode maps a root command error to the process exit code: the GUI's own
// code, 2 for a configuration that fails validation, 1 for anything else.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if apperrors.As(err, &exit) {
		return exit.Code
	}
	if apperrors.IsInvalidConfig(err) {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
