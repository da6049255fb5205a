// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	securejoin "github.com/cyphar/filepath-securejoin"
	"golang.org/x/sync/errgroup"

	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/internal/launch"
	"github.com/blocklaunch/blocklaunch/pkg/digest"
	"github.com/blocklaunch/blocklaunch/pkg/fspath"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

// InstallReport summarizes an Install call.
type InstallReport struct {
	Downloaded int
	Satisfied  int
	Natives    int
	// Linked counts asset copies made for virtual or resources layouts.
	Linked int

	mu sync.Mutex
}

func (r *InstallReport) record(outs []download.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range outs {
		switch o.Status {
		case download.StatusDownloaded:
			r.Downloaded++
		case download.StatusSatisfied:
			r.Satisfied++
		}
	}
}

func (r *InstallReport) add(natives, linked int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Natives += natives
	r.Linked += linked
}

// Install makes desc launchable: the client jar, libraries and logging
// configuration are downloaded and the natives extracted, while the asset
// index and objects download alongside. Files that already verify are not
// fetched again, so a second Install transfers nothing.
func (l *Launcher) Install(ctx context.Context, desc *manifest.Version) (*InstallReport, error) {
	if err := manifest.Validate(desc); err != nil {
		return nil, err
	}
	for _, dir := range []string{libraryDir(l.root), assetsDir(l.root)} {
		if err := fspath.EnsureCacheDirTag(dir); err != nil {
			return nil, err
		}
	}

	report := &InstallReport{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := l.fetch(gctx, report, l.gameTasks(desc)); err != nil {
			return fmt.Errorf("downloading game files for %s: %w", desc.ID, err)
		}
		l.observe(Progress{Stage: StageNatives, Message: desc.ID})
		n, err := l.extractor.Extract(gctx, desc.Libraries, launch.NativesDir(l.root, desc.ID), l.platform)
		report.add(n, 0)
		if err != nil {
			return fmt.Errorf("extracting natives for %s: %w", desc.ID, err)
		}
		return nil
	})
	g.Go(func() error {
		return l.installAssets(gctx, desc, report)
	})
	if err := g.Wait(); err != nil {
		return report, err
	}

	l.logger.Debug("version installed", "id", desc.ID,
		"downloaded", report.Downloaded, "satisfied", report.Satisfied, "natives", report.Natives)
	return report, nil
}

// gameTasks lists the client jar, the applicable libraries with their
// native archives, and the logging configuration.
func (l *Launcher) gameTasks(desc *manifest.Version) []download.Task {
	var tasks []download.Task
	seen := make(map[string]bool)
	add := func(name string, a manifest.Artifact, dest string) {
		if a.URL == "" || seen[dest] {
			return
		}
		seen[dest] = true
		tasks = append(tasks, download.Task{
			Name:    name,
			Sources: l.mirror.Sources(a.URL),
			Dest:    dest,
			Digest:  digest.SHA1Hex(a.SHA1),
			Size:    a.Size,
		})
	}

	if jar, ok := desc.ClientJar(); ok {
		add(desc.JarID()+".jar", jar, manifest.VersionJarPath(l.root, desc.JarID()))
	}

	env := manifest.Environment{Platform: l.platform}
	for i := range desc.Libraries {
		lib := &desc.Libraries[i]
		if !lib.Applies(env) {
			continue
		}
		if a, ok := lib.Artifact(); ok {
			add(lib.Name, a, libraryPath(l.root, a.Path))
		}
		if a, ok := lib.NativeArtifact(l.platform); ok {
			add(lib.Name+" (natives)", a, libraryPath(l.root, a.Path))
		}
	}

	if desc.Logging != nil && desc.Logging.Client != nil {
		f := desc.Logging.Client.File
		if f.ID != "" {
			add(f.ID, manifest.Artifact{URL: f.URL, SHA1: f.SHA1, Size: f.Size}, launch.LoggingConfigPath(l.root, f.ID))
		}
	}
	return tasks
}

// installAssets fetches the asset index, then every object it lists, then
// copies objects into the virtual or resources layout when the index asks
// for one.
func (l *Launcher) installAssets(ctx context.Context, desc *manifest.Version, report *InstallReport) error {
	ref := desc.AssetIndex
	if ref == nil {
		l.logger.Debug("version has no asset index", "id", desc.ID)
		return nil
	}

	l.observe(Progress{Stage: StageAssets, Message: ref.ID})
	index := download.Task{
		Name:    "asset index " + ref.ID,
		Sources: l.mirror.Sources(ref.URL),
		Dest:    assetIndexPath(l.root, ref.ID),
		Digest:  digest.SHA1Hex(ref.SHA1),
		Size:    ref.Size,
	}
	if err := l.fetch(ctx, report, []download.Task{index}); err != nil {
		return fmt.Errorf("downloading asset index %s: %w", ref.ID, err)
	}
	idx, err := l.readAssetIndex(desc)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(idx.Objects))
	for name := range idx.Objects {
		names = append(names, name)
	}
	slices.Sort(names)

	tasks := make([]download.Task, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		obj := idx.Objects[name]
		if seen[obj.Hash] {
			continue
		}
		seen[obj.Hash] = true
		tasks = append(tasks, download.Task{
			Name:    name,
			Sources: l.mirror.Sources(obj.URL(l.assetBase)),
			Dest:    objectPath(l.root, obj),
			Digest:  digest.SHA1Hex(obj.Hash),
			Size:    obj.Size,
		})
	}
	if err := l.fetch(ctx, report, tasks); err != nil {
		return fmt.Errorf("downloading assets: %w", err)
	}

	var targets []string
	if idx.Virtual {
		targets = append(targets, filepath.Join(assetsDir(l.root), "virtual", ref.ID))
	}
	if idx.MapToResources {
		targets = append(targets, resourcesDir(l.gameDir))
	}
	for _, base := range targets {
		n, err := l.linkAssets(ctx, idx, names, base)
		report.add(0, n)
		if err != nil {
			return err
		}
	}
	return nil
}

// linkAssets copies objects to their logical paths under base. Copies that
// already verify are left alone.
func (l *Launcher) linkAssets(ctx context.Context, idx *manifest.AssetIndex, names []string, base string) (int, error) {
	copied := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		obj := idx.Objects[name]
		dest, err := securejoin.SecureJoin(base, name)
		if err != nil {
			return copied, fmt.Errorf("asset path %s: %w", name, err)
		}
		ok, err := digest.Matches(dest, digest.SHA1Hex(obj.Hash), obj.Size)
		if err != nil {
			return copied, err
		}
		if ok {
			continue
		}
		if err := fspath.CopyFile(objectPath(l.root, obj), dest); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// readAssetIndex loads the installed asset index of desc.
func (l *Launcher) readAssetIndex(desc *manifest.Version) (*manifest.AssetIndex, error) {
	if desc.AssetIndex == nil {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(assetIndexPath(l.root, desc.AssetIndex.ID))
	if err != nil {
		return nil, fmt.Errorf("reading asset index: %w", err)
	}
	return manifest.DecodeAssetIndex(data)
}

// fetch runs tasks, records the outcomes and returns a *download.BatchError
// when any failed.
func (l *Launcher) fetch(ctx context.Context, report *InstallReport, tasks []download.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	outs := l.downloads.Run(ctx, tasks)
	report.record(outs)

	var failed []download.Outcome
	for _, o := range outs {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	if len(failed) > 0 {
		return &download.BatchError{Failed: failed}
	}
	return nil
}

func libraryDir(root string) string { return filepath.Join(root, "libraries") }

func libraryPath(root, rel string) string {
	return filepath.Join(libraryDir(root), filepath.FromSlash(rel))
}

func assetsDir(root string) string { return filepath.Join(root, "assets") }

func assetIndexPath(root, id string) string {
	return filepath.Join(assetsDir(root), "indexes", id+".json")
}

func objectPath(root string, obj manifest.AssetObject) string {
	return filepath.Join(assetsDir(root), "objects", filepath.FromSlash(obj.ObjectPath()))
}

func resourcesDir(gameDir string) string { return filepath.Join(gameDir, "resources") }
