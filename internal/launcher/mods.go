// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocklaunch/blocklaunch/internal/loader"
	"github.com/blocklaunch/blocklaunch/internal/mods"
)

// ErrNoLoader is returned when mods are checked for a version launched
// without a mod loader.
var ErrNoLoader = errors.New("version has no mod loader")

// ModReport is the outcome of CheckMods.
type ModReport struct {
	Version string
	Loader  loader.Request
	// Builtins are the game, Java and loader entries mods can depend on.
	Builtins []mods.Mod
	// Mods are the ids found under the mods directory.
	Mods     []mods.Mod
	Problems []mods.Problem
	// ScanErr aggregates the mod files that could not be read.
	ScanErr error
}

// HasHardProblems reports whether a problem stops the game from loading.
func (r *ModReport) HasHardProblems() bool {
	for _, p := range r.Problems {
		if p.Level == mods.Hard {
			return true
		}
	}
	return false
}

// CheckMods reads the mods directory of the game directory and checks the
// relations they declare against each other and the loader id launches
// with.
func (l *Launcher) CheckMods(ctx context.Context, id string) (*ModReport, error) {
	desc, err := l.ResolveVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	req, ok := loader.Detect(desc)
	if !ok {
		return nil, fmt.Errorf("%s: %w", desc.ID, ErrNoLoader)
	}

	report := &ModReport{
		Version:  desc.ID,
		Loader:   req,
		Builtins: mods.Builtins(desc, req, libraryDir(l.root)),
	}
	dir := mods.Dir(l.gameDir)
	found, err := mods.Scan(ctx, dir, req.Variant)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	if err != nil {
		l.logger.Warn("some mod files could not be read", "dir", dir, "error", err)
		report.ScanErr = err
	}
	report.Mods = found

	all := make([]mods.Mod, 0, len(report.Builtins)+len(found))
	all = append(all, report.Builtins...)
	all = append(all, found...)
	report.Problems = mods.Check(all)
	l.logger.Debug("mods checked", "version", desc.ID, "loader", req.Variant, "mods", len(found), "problems", len(report.Problems))
	return report, nil
}
