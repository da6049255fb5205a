// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/blocklaunch/blocklaunch/internal/loader"
)

// modFile matches the archives a loader picks up from the mods directory.
var modFile = glob.MustCompile("*.{jar,zip}")

// JarError reports a mod file that could not be read.
type JarError struct {
	File string
	Err  error
}

// Error implements the error interface.
func (e *JarError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Err) }

// Unwrap returns the underlying cause.
func (e *JarError) Unwrap() error { return e.Err }

// Dir is the mods directory of a game directory.
func Dir(gameDir string) string { return filepath.Join(gameDir, "mods") }

// Scan reads every mod archive directly under dir, ordered by file name. A
// missing directory holds no mods. Unreadable files do not stop the scan;
// their errors are aggregated into a *multierror.Error of *JarError values
// next to the mods that were read.
func Scan(ctx context.Context, dir string, v loader.Variant) ([]Mod, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading mods directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && modFile.Match(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	found := make([][]Mod, len(files))
	failed := make([]error, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mods, err := ReadJar(filepath.Join(dir, name), v)
			if err != nil {
				failed[i] = &JarError{File: name, Err: err}
				return nil
			}
			found[i] = mods
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		mods []Mod
		errs *multierror.Error
	)
	for i := range files {
		mods = append(mods, found[i]...)
		if failed[i] != nil {
			errs = multierror.Append(errs, failed[i])
		}
	}
	return mods, errs.ErrorOrNil()
}
