// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/blocklaunch/blocklaunch/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	var (
		verbose bool
		cfgFile string
	)

	rootCmd := &cobra.Command{
		Use:   "blocklaunch",
		Short: "Install and launch game versions from the command line",
		Long: TitleStyle.Render("blocklaunch") + SubtitleStyle.Render(" - install and launch game versions") + `

blocklaunch resolves version descriptors, downloads and verifies every
library and asset, installs mod loaders and assembles the launch command.

` + SubtitleStyle.Render("Examples:") + `
  blocklaunch versions                        List release versions
  blocklaunch install 1.20.1                  Install a version
  blocklaunch install 1.20.1 --loader fabric  Install with the latest Fabric loader
  blocklaunch login                           Sign in with a Microsoft account
  blocklaunch launch 1.20.1                   Start the game`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.prepare(cmd.Context(), cfgFile, verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/blocklaunch/config.cue)")

	rootCmd.AddCommand(
		newVersionsCommand(app),
		newInstallCommand(app),
		newLoginCommand(app),
		newLogoutCommand(app),
		newAccountCommand(app),
		newLaunchCommand(app),
		newModsCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// prepare loads configuration and builds the logger for one invocation.
func (a *App) prepare(ctx context.Context, cfgFile string, verbose bool) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		a.verbose = verbose
		return fail("load configuration", err)
	}

	a.cfg = cfg
	a.verbose = verbose || cfg.UI.Verbose
	a.logger = newLogger(a.stderr, a.verbose)

	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: config.AppName,
	})
}

// Execute runs the CLI and exits with the command's exit code.
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			app.renderError(w, err)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
