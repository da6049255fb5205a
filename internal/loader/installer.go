// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/internal/runtime"
	"github.com/blocklaunch/blocklaunch/pkg/digest"
	"github.com/blocklaunch/blocklaunch/pkg/fspath"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

const (
	stagingDirName  = ".staging"
	stagingLockName = ".staging.lock"
	lockRetryDelay  = 250 * time.Millisecond
)

type (
	// Installer installs loader profiles into a game root. Every file an
	// installation produces is written to a private staging directory and
	// only moved into the root after all downloads and steps succeeded, so a
	// failed installation leaves the root as it was.
	Installer struct {
		providers  map[Variant]Provider
		downloader Downloader
		runner     runtime.Runner
		java       string
		mirror     download.Mirror
		platform   platform.Platform
		logger     *log.Logger
	}

	// InstallerOption configures an Installer.
	InstallerOption func(*Installer)

	// Result describes a completed installation.
	Result struct {
		Variant    Variant
		Version    string
		Descriptor *manifest.Version
		// Downloaded counts library files fetched for this installation.
		Downloaded int
		// Ran and Skipped count steps executed and steps whose outputs
		// already verified.
		Ran     int
		Skipped int
	}
)

// WithProviders replaces the providers for their variants.
func WithProviders(ps ...Provider) InstallerOption {
	return func(i *Installer) {
		for _, p := range ps {
			i.providers[p.Variant()] = p
		}
	}
}

// WithRunner sets the process runner for install steps.
func WithRunner(r runtime.Runner) InstallerOption {
	return func(i *Installer) {
		i.runner = r
	}
}

// WithJava sets the java executable for install steps.
func WithJava(path string) InstallerOption {
	return func(i *Installer) {
		if path != "" {
			i.java = path
		}
	}
}

// WithDownloadMirror routes artifact downloads through a mirror first.
func WithDownloadMirror(m download.Mirror) InstallerOption {
	return func(i *Installer) {
		i.mirror = m
	}
}

// WithPlatform overrides the platform used to evaluate library rules.
func WithPlatform(p platform.Platform) InstallerOption {
	return func(i *Installer) {
		i.platform = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) InstallerOption {
	return func(i *Installer) {
		i.logger = l
	}
}

// NewInstaller creates an Installer serving all variants with default
// metadata endpoints.
func NewInstaller(downloader Downloader, opts ...InstallerOption) *Installer {
	inst := &Installer{
		providers:  make(map[Variant]Provider),
		downloader: downloader,
		runner:     runtime.ExecRunner{},
		java:       "java",
		platform:   platform.Current(),
		logger:     log.New(io.Discard),
	}
	for _, p := range []Provider{NewFabric(), NewQuilt(), NewForge(), NewNeoForge()} {
		inst.providers[p.Variant()] = p
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Provider returns the provider serving v.
func (inst *Installer) Provider(v Variant) (Provider, error) {
	p, ok := inst.providers[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return p, nil
}

// Install resolves req against base, then downloads, runs and commits the
// resulting profile under root. base must already be installed under root.
func (inst *Installer) Install(ctx context.Context, root string, base *manifest.Version, req Request) (*Result, error) {
	p, err := inst.Provider(req.Variant)
	if err != nil {
		return nil, err
	}
	version, err := p.ResolveVersion(ctx, base.ID, req.Version)
	if err != nil {
		return nil, err
	}
	inst.logger.Info("installing loader", "variant", req.Variant, "version", version, "game", base.ID)

	if err := os.MkdirAll(filepath.Join(root, stagingDirName), 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	lock := flock.New(filepath.Join(root, stagingLockName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return nil, fmt.Errorf("locking %s: %w", root, errors.Join(err, ctx.Err()))
	}
	defer func() { _ = lock.Unlock() }()

	stage, err := os.MkdirTemp(filepath.Join(root, stagingDirName), fmt.Sprintf("%s-%s-*", req.Variant, version))
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(stage); err != nil {
			inst.logger.Warn("staging directory not removed", "path", stage, "error", err)
		}
	}()

	ws := &Workspace{
		Root:       root,
		Stage:      stage,
		Platform:   inst.platform,
		Downloader: inst.downloader,
		Mirror:     inst.mirror,
	}

	profile, err := p.Plan(ctx, ws, base, version)
	if err != nil {
		return nil, err
	}
	res := &Result{Variant: profile.Variant, Version: version, Descriptor: profile.Descriptor}

	if res.Downloaded, err = inst.stageArtifacts(ctx, ws, profile.Artifacts); err != nil {
		return nil, err
	}

	t := newTemplater(ws, base, profile.Data)
	for i, step := range profile.Steps {
		skipped, err := inst.runStep(ctx, t, step, i, len(profile.Steps))
		if err != nil {
			return nil, err
		}
		if skipped {
			res.Skipped++
		} else {
			res.Ran++
		}
	}

	if err := commit(ws, profile.Descriptor); err != nil {
		return nil, err
	}
	inst.logger.Info("loader installed", "id", profile.Descriptor.ID, "steps", res.Ran, "skipped", res.Skipped)
	return res, nil
}

// stageArtifacts downloads the artifacts whose committed copy is missing or
// does not verify.
func (inst *Installer) stageArtifacts(ctx context.Context, ws *Workspace, artifacts []Artifact) (int, error) {
	var tasks []download.Task
	for _, a := range artifacts {
		ok, err := digest.Matches(ws.CommittedPath(a.Path), a.Digest, a.Size)
		if err != nil {
			return 0, err
		}
		if ok {
			continue
		}
		tasks = append(tasks, download.Task{
			Name:    a.Path,
			Sources: ws.Mirror.Sources(a.URL),
			Dest:    ws.StagedPath(a.Path),
			Digest:  a.Digest,
			Size:    a.Size,
		})
	}
	if len(tasks) == 0 {
		return 0, nil
	}
	if err := ws.Downloader.RunAll(ctx, tasks); err != nil {
		return 0, fmt.Errorf("downloading loader libraries: %w", err)
	}
	return len(tasks), nil
}

// commit moves staged libraries into the root and then writes the
// descriptor. The descriptor write is the commit point: until it exists the
// version is not installed.
func commit(ws *Workspace, desc *manifest.Version) error {
	staged := ws.StagedLibraryDir()
	err := filepath.WalkDir(staged, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(staged, path)
		if err != nil {
			return err
		}
		return fspath.MoveFile(path, ws.CommittedPath(filepath.ToSlash(rel)))
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("committing libraries: %w", err)
	}

	data, err := manifest.Encode(desc)
	if err != nil {
		return err
	}
	if err := fspath.WriteFileAtomic(manifest.VersionPath(ws.Root, desc.ID), data, 0o644); err != nil {
		return fmt.Errorf("writing descriptor: %w", err)
	}
	return nil
}
