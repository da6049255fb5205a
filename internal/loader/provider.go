// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"path/filepath"

	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/pkg/fspath"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

type (
	// VersionResolver maps a requested loader version to a concrete build.
	VersionResolver interface {
		// Versions lists the builds available for gameVersion, newest first.
		Versions(ctx context.Context, gameVersion string) ([]string, error)
		// ResolveVersion accepts an exact build, Recommended or Latest.
		ResolveVersion(ctx context.Context, gameVersion, requested string) (string, error)
	}

	// Planner turns a resolved build into a Profile. Planners may download
	// and unpack installers into the Workspace staging directory.
	Planner interface {
		Plan(ctx context.Context, ws *Workspace, base *manifest.Version, version string) (*Profile, error)
	}

	// Provider serves one Variant.
	Provider interface {
		VersionResolver
		Planner
		Variant() Variant
	}

	// Downloader runs download batches; *download.Orchestrator implements it.
	Downloader interface {
		RunAll(ctx context.Context, tasks []download.Task) error
	}

	// Workspace is the view of the game root and staging directory handed to
	// planners and steps.
	Workspace struct {
		Root       string
		Stage      string
		Platform   platform.Platform
		Downloader Downloader
		Mirror     download.Mirror
	}
)

// LibraryDir is the committed library directory.
func (w *Workspace) LibraryDir() string {
	return filepath.Join(w.Root, "libraries")
}

// StagedLibraryDir is the staged library directory.
func (w *Workspace) StagedLibraryDir() string {
	return filepath.Join(w.Stage, "libraries")
}

// InstallerDir is where planners unpack installer archives.
func (w *Workspace) InstallerDir() string {
	return filepath.Join(w.Stage, "installer")
}

// InstallerJar is where planners download an installer archive.
func (w *Workspace) InstallerJar() string {
	return filepath.Join(w.Stage, "installer.jar")
}

// CommittedPath returns the committed location of a library-relative path.
func (w *Workspace) CommittedPath(rel string) string {
	return filepath.Join(w.LibraryDir(), filepath.FromSlash(rel))
}

// StagedPath returns the staged location of a library-relative path.
func (w *Workspace) StagedPath(rel string) string {
	return filepath.Join(w.StagedLibraryDir(), filepath.FromSlash(rel))
}

// LibraryPath returns where a library is read from: the staged copy when
// one exists, else the committed copy when one exists, else the staged
// location where it will be produced.
func (w *Workspace) LibraryPath(rel string) string {
	staged := w.StagedPath(rel)
	if fspath.Exists(staged) {
		return staged
	}
	if committed := w.CommittedPath(rel); fspath.Exists(committed) {
		return committed
	}
	return staged
}

// Environment is the rule environment for the workspace platform.
func (w *Workspace) Environment() manifest.Environment {
	return manifest.Environment{Platform: w.Platform}
}

// VersionJar is the committed client jar of a version.
func (w *Workspace) VersionJar(id string) string {
	return manifest.VersionJarPath(w.Root, id)
}
