// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blocklaunch/blocklaunch/internal/auth"
	"github.com/blocklaunch/blocklaunch/internal/config"
	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/internal/launcher"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every command handler receives an App.
	App struct {
		Config    ConfigProvider
		Launchers LauncherFactory
		stdin     io.Reader
		stdout    io.Writer
		stderr    io.Writer

		// per-invocation state set by the root command's pre-run hook
		cfg     *config.Config
		logger  *log.Logger
		verbose bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Launchers LauncherFactory
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// LauncherParams carries what a LauncherFactory needs besides the
	// configuration.
	LauncherParams struct {
		Logger   *log.Logger
		Observer launcher.Observer
		// Registerer receives download metrics when set.
		Registerer prometheus.Registerer
	}

	// LauncherFactory builds a Launcher from configuration.
	LauncherFactory func(cfg *config.Config, p LauncherParams) (*launcher.Launcher, error)
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Launchers == nil {
		deps.Launchers = NewLauncher
	}

	return &App{
		Config:    deps.Config,
		Launchers: deps.Launchers,
		stdin:     deps.Stdin,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		logger:    log.New(io.Discard),
	}
}

// NewLauncher is the production LauncherFactory. It maps every config
// section onto the matching component.
func NewLauncher(cfg *config.Config, p LauncherParams) (*launcher.Launcher, error) {
	if p.Logger == nil {
		p.Logger = log.New(io.Discard)
	}
	root, err := cfg.ResolvedGameDir()
	if err != nil {
		return nil, err
	}
	sessionFile, err := cfg.ResolvedSessionFile()
	if err != nil {
		return nil, err
	}

	ua := userAgent()
	endpoints := auth.DefaultEndpoints()
	if cfg.Auth.AuthlibInjectorURL != "" {
		endpoints.AuthlibInjector = cfg.Auth.AuthlibInjectorURL
	}
	accounts := auth.NewManager(auth.FileStore{Path: sessionFile},
		auth.WithEndpoints(endpoints),
		auth.WithClientID(cfg.Auth.ClientID),
		auth.WithHTTPClient(&http.Client{Timeout: cfg.Auth.Timeout}),
		auth.WithUserAgent(ua),
		auth.WithLogger(p.Logger),
	)

	dlOpts := []download.Option{
		download.WithConcurrency(cfg.Download.Concurrency),
		download.WithRetryPolicy(cfg.Download.RetryPolicy()),
		download.WithUserAgent(ua),
	}
	if p.Registerer != nil {
		dlOpts = append(dlOpts, download.WithRegisterer(p.Registerer))
	}

	return launcher.New(root,
		launcher.WithMirror(download.Mirror(cfg.Mirror)),
		launcher.WithJava(cfg.JavaPath),
		launcher.WithAccounts(accounts),
		launcher.WithDownloadOptions(dlOpts...),
		launcher.WithLogger(p.Logger),
		launcher.WithObserver(p.Observer),
	), nil
}

// launcher builds a Launcher for the current invocation.
func (a *App) launcher(p LauncherParams) (*launcher.Launcher, error) {
	if p.Logger == nil {
		p.Logger = a.logger
	}
	if p.Observer == nil {
		p.Observer = newProgressPrinter(a.stderr, a.verbose).observe
	}
	return a.Launchers(a.cfg, p)
}

func userAgent() string {
	return config.AppName + "/" + Version
}
