// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/blocklaunch/blocklaunch/internal/auth"
	"github.com/blocklaunch/blocklaunch/internal/dag"
	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/internal/launch"
	"github.com/blocklaunch/blocklaunch/internal/loader"
	"github.com/blocklaunch/blocklaunch/internal/mojang"
	"github.com/blocklaunch/blocklaunch/internal/natives"
	"github.com/blocklaunch/blocklaunch/internal/runtime"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

// ErrNoAccounts is returned by account operations on a Launcher built
// without an account manager.
var ErrNoAccounts = errors.New("no account manager configured")

type (
	// Launcher drives installation and launch for one game root.
	Launcher struct {
		root      string
		gameDir   string
		remote    *mojang.Client
		local     manifest.DirSource
		resolver  *manifest.Resolver
		downloads *download.Orchestrator
		dlOpts    []download.Option
		extractor *natives.Extractor
		loaders   *loader.Installer
		accounts  *auth.Manager
		builder   *launch.Builder
		runner    runtime.Runner
		mirror    download.Mirror
		java      string
		assetBase string
		platform  platform.Platform
		logger    *log.Logger
		observer  Observer
	}

	// Option configures a Launcher.
	Option func(*Launcher)
)

// WithGameDir sets the game working directory. Defaults to the root.
func WithGameDir(dir string) Option {
	return func(l *Launcher) {
		l.gameDir = dir
	}
}

// WithRemote sets the remote version metadata client.
func WithRemote(c *mojang.Client) Option {
	return func(l *Launcher) {
		l.remote = c
	}
}

// WithDownloader sets the download orchestrator. Per-file progress is only
// forwarded to the Observer for the default orchestrator.
func WithDownloader(o *download.Orchestrator) Option {
	return func(l *Launcher) {
		l.downloads = o
	}
}

// WithDownloadOptions tunes the default orchestrator. It is ignored when
// WithDownloader supplies one.
func WithDownloadOptions(opts ...download.Option) Option {
	return func(l *Launcher) {
		l.dlOpts = append(l.dlOpts, opts...)
	}
}

// WithJava sets the java executable used for loader processors and, unless
// launch options name another, for the game.
func WithJava(path string) Option {
	return func(l *Launcher) {
		l.java = path
	}
}

// WithLoaderInstaller sets the loader installer.
func WithLoaderInstaller(i *loader.Installer) Option {
	return func(l *Launcher) {
		l.loaders = i
	}
}

// WithAccounts sets the account manager.
func WithAccounts(m *auth.Manager) Option {
	return func(l *Launcher) {
		l.accounts = m
	}
}

// WithBuilder sets the launch command builder.
func WithBuilder(b *launch.Builder) Option {
	return func(l *Launcher) {
		l.builder = b
	}
}

// WithRunner sets the process runner used for the game and loader steps.
func WithRunner(r runtime.Runner) Option {
	return func(l *Launcher) {
		l.runner = r
	}
}

// WithMirror routes downloads through a mirror first.
func WithMirror(m download.Mirror) Option {
	return func(l *Launcher) {
		l.mirror = m
	}
}

// WithAssetBase overrides the asset object server.
func WithAssetBase(u string) Option {
	return func(l *Launcher) {
		l.assetBase = u
	}
}

// WithPlatform overrides the detected platform.
func WithPlatform(p platform.Platform) Option {
	return func(l *Launcher) {
		l.platform = p
	}
}

// WithLogger sets the logger handed to the default components.
func WithLogger(lg *log.Logger) Option {
	return func(l *Launcher) {
		l.logger = lg
	}
}

// WithObserver sets the progress callback.
func WithObserver(fn Observer) Option {
	return func(l *Launcher) {
		l.observer = fn
	}
}

// New creates a Launcher for root. Components not supplied as options are
// built with defaults sharing the Launcher's logger, mirror and platform.
func New(root string, opts ...Option) *Launcher {
	l := &Launcher{
		root:      root,
		local:     manifest.DirSource{Root: root},
		assetBase: manifest.DefaultAssetBase,
		platform:  platform.Current(),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.gameDir == "" {
		l.gameDir = root
	}
	if l.runner == nil {
		l.runner = runtime.ExecRunner{Logger: l.logger}
	}
	if l.remote == nil {
		l.remote = mojang.New(
			mojang.WithMirror(l.mirror),
			mojang.WithCacheRoot(root),
			mojang.WithLogger(l.logger),
		)
	}
	if l.downloads == nil {
		opts := append([]download.Option{
			download.WithLogger(l.logger),
			download.WithObserver(l.forwardDownload),
		}, l.dlOpts...)
		l.downloads = download.New(opts...)
	}
	if l.loaders == nil {
		opts := []loader.InstallerOption{
			loader.WithDownloadMirror(l.mirror),
			loader.WithPlatform(l.platform),
			loader.WithRunner(l.runner),
			loader.WithLogger(l.logger),
		}
		if l.java != "" {
			opts = append(opts, loader.WithJava(l.java))
		}
		l.loaders = loader.NewInstaller(l.downloads, opts...)
	}
	if l.builder == nil {
		l.builder = launch.NewBuilder(launch.WithLogger(l.logger))
	}
	l.extractor = natives.New(libraryDir(root), natives.WithLogger(l.logger))
	l.resolver = manifest.NewResolver(manifest.ChainSource{l.local, l.remote})
	return l
}

// Root returns the game root.
func (l *Launcher) Root() string { return l.root }

// RemoteVersions returns the remote version list.
func (l *Launcher) RemoteVersions(ctx context.Context) (*mojang.VersionList, error) {
	return l.remote.VersionList(ctx)
}

// ResolveVersion returns the merged descriptor of id, reading installed
// descriptors first. "latest", "release" and "snapshot" name the newest
// remote versions.
func (l *Launcher) ResolveVersion(ctx context.Context, id string) (*manifest.Version, error) {
	switch id {
	case "latest", "release", "snapshot":
		list, err := l.remote.VersionList(ctx)
		if err != nil {
			return nil, err
		}
		id = list.Alias(id)
	}
	l.observe(Progress{Stage: StageResolve, Message: id})
	return l.resolver.Resolve(ctx, id)
}

// InstalledVersions lists the versions with a descriptor under the root,
// every parent before the versions inheriting from it.
func (l *Launcher) InstalledVersions(ctx context.Context) ([]string, error) {
	ids, err := l.local.Installed()
	if err != nil {
		return nil, err
	}

	installed := make(map[string]bool, len(ids))
	for _, id := range ids {
		installed[id] = true
	}

	g := dag.New()
	for _, id := range ids {
		v, err := l.local.Fetch(ctx, id)
		if err != nil {
			l.logger.Warn("skipping unreadable version", "id", id, "error", err)
			continue
		}
		g.AddNode(id)
		if v.InheritsFrom != "" && installed[v.InheritsFrom] {
			g.AddEdge(v.InheritsFrom, id)
		}
	}
	order, err := g.TopologicalSort()
	if err != nil {
		var ce *dag.CycleError
		if errors.As(err, &ce) {
			return nil, &manifest.CycleError{Chain: ce.Cycle}
		}
		return nil, err
	}
	return order, nil
}

// InstallLoader layers req over base. The base game files are installed
// first, since processor steps read the client jar, and the composed
// version is installed afterwards so its own libraries and natives are in
// place.
func (l *Launcher) InstallLoader(ctx context.Context, base *manifest.Version, req loader.Request) (*loader.Result, error) {
	if _, err := l.Install(ctx, base); err != nil {
		return nil, err
	}

	l.observe(Progress{Stage: StageLoader, Message: req.String()})
	res, err := l.loaders.Install(ctx, l.root, base, req)
	if err != nil {
		return nil, err
	}

	desc, err := l.resolver.Resolve(ctx, res.Descriptor.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving installed loader version: %w", err)
	}
	if _, err := l.Install(ctx, desc); err != nil {
		return nil, err
	}
	return res, nil
}

// Authenticate signs in with a Microsoft account.
func (l *Launcher) Authenticate(ctx context.Context, prompt auth.Prompt) (auth.Session, error) {
	if l.accounts == nil {
		return auth.Session{}, ErrNoAccounts
	}
	l.observe(Progress{Stage: StageAuth, Message: "device code sign-in"})
	return l.accounts.Authenticate(ctx, prompt)
}

// Accounts returns the account manager, nil when none is configured.
func (l *Launcher) Accounts() *auth.Manager { return l.accounts }

// Session returns a usable session, refreshing it when it expired.
func (l *Launcher) Session(ctx context.Context) (auth.Session, error) {
	if l.accounts == nil {
		return auth.Session{}, ErrNoAccounts
	}
	return l.accounts.Session(ctx)
}

// BuildLaunchCommand assembles the command line for desc.
func (l *Launcher) BuildLaunchCommand(desc *manifest.Version, session auth.Session, opts launch.Options) (*launch.Command, error) {
	paths := launch.Paths{Root: l.root, GameDir: l.gameDir}
	if idx, err := l.readAssetIndex(desc); err == nil && idx.MapToResources {
		paths.GameAssets = resourcesDir(l.gameDir)
	}
	if opts.Platform.OS == "" {
		opts.Platform = l.platform
	}
	if opts.Java == "" {
		opts.Java = l.java
	}
	return l.builder.Build(desc, paths, session, opts)
}

// Launch runs cmd in the game directory and waits for the game to exit.
func (l *Launcher) Launch(ctx context.Context, cmd *launch.Command, stdout, stderr io.Writer) (*runtime.Result, error) {
	if err := os.MkdirAll(cmd.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating game directory: %w", err)
	}
	l.observe(Progress{Stage: StageLaunch, Message: cmd.MainClass})
	l.logger.Info("launching", "command", cmd.Redacted())

	proc := cmd.Process()
	proc.Stdout, proc.Stderr = stdout, stderr
	return l.runner.Run(ctx, proc), nil
}
