// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

// Quick play targets.
const (
	QuickPlaySingleplayer QuickPlayKind = "singleplayer"
	QuickPlayMultiplayer  QuickPlayKind = "multiplayer"
	QuickPlayRealms       QuickPlayKind = "realms"
)

// ErrInvalidOptions is returned when Options cannot produce a command line.
var ErrInvalidOptions = errors.New("invalid launch options")

type (
	// QuickPlayKind selects what a quick play launch joins.
	QuickPlayKind string

	// QuickPlay starts the game straight into a world, server or realm.
	QuickPlay struct {
		Kind QuickPlayKind
		// Target is the world name, server address or realm id.
		Target string
		// LogPath is where the game records quick play history. The
		// --quickPlayPath argument is only passed when it is set.
		LogPath string
	}

	// AuthlibInjector routes the game's authentication through a Yggdrasil
	// server by loading the authlib-injector agent.
	AuthlibInjector struct {
		// Jar is the downloaded agent.
		Jar    string
		APIURL string
		// Prefetched is the base64 API root document. Optional.
		Prefetched string
	}

	// Paths locates the installed game.
	Paths struct {
		// Root holds libraries/, assets/ and versions/.
		Root string
		// GameDir is the working directory of the game. Defaults to Root.
		GameDir string
		// NativesDir defaults to versions/<id>/natives under Root.
		NativesDir string
		// GameAssets is the legacy asset directory. Defaults to
		// assets/virtual/<index> under Root.
		GameAssets string
	}

	// Options are the per-launch settings that are not part of the
	// descriptor.
	Options struct {
		// Java is the java executable. Defaults to "java".
		Java        string
		MinMemoryMB int
		MaxMemoryMB int
		// ExtraJVMArgs is split with shell quoting rules.
		ExtraJVMArgs  string
		ExtraGameArgs []string
		// Width and Height enable the custom resolution arguments when both
		// are positive.
		Width     int
		Height    int
		Demo      bool
		QuickPlay *QuickPlay
		ClientID  string
		// AuthlibInjector is set for Yggdrasil sessions.
		AuthlibInjector *AuthlibInjector
		// Platform defaults to the running platform.
		Platform platform.Platform
	}
)

// NativesDir is where the natives of version id are extracted.
func NativesDir(root, id string) string {
	return filepath.Join(root, "versions", id, "natives")
}

// LoggingConfigPath is where the logging configuration file id is stored.
func LoggingConfigPath(root, id string) string {
	return filepath.Join(root, "assets", "log_configs", id)
}

// withDefaults fills unset paths for desc.
func (p Paths) withDefaults(desc *manifest.Version) Paths {
	if p.GameDir == "" {
		p.GameDir = p.Root
	}
	if p.NativesDir == "" {
		p.NativesDir = NativesDir(p.Root, desc.ID)
	}
	if p.GameAssets == "" {
		p.GameAssets = filepath.Join(p.Root, "assets", "virtual", desc.AssetsID())
	}
	return p
}

func (o *Options) validate() error {
	if o.MinMemoryMB < 0 || o.MaxMemoryMB < 0 {
		return fmt.Errorf("%w: memory sizes must not be negative", ErrInvalidOptions)
	}
	if o.MinMemoryMB > 0 && o.MaxMemoryMB > 0 && o.MinMemoryMB > o.MaxMemoryMB {
		return fmt.Errorf("%w: minimum memory %dMB exceeds maximum %dMB", ErrInvalidOptions, o.MinMemoryMB, o.MaxMemoryMB)
	}
	if qp := o.QuickPlay; qp != nil {
		switch qp.Kind {
		case QuickPlaySingleplayer, QuickPlayMultiplayer, QuickPlayRealms:
		default:
			return fmt.Errorf("%w: unknown quick play kind %q", ErrInvalidOptions, qp.Kind)
		}
		if qp.Target == "" {
			return fmt.Errorf("%w: quick play needs a target", ErrInvalidOptions)
		}
	}
	if ai := o.AuthlibInjector; ai != nil && (ai.Jar == "" || ai.APIURL == "") {
		return fmt.Errorf("%w: authlib-injector needs a jar and an API URL", ErrInvalidOptions)
	}
	return nil
}

// customResolution reports whether both dimensions are set.
func (o *Options) customResolution() bool {
	return o.Width > 0 && o.Height > 0
}

// features are the rule flags these options switch on.
func (o *Options) features() map[string]bool {
	f := map[string]bool{
		manifest.FeatureDemoUser:         o.Demo,
		manifest.FeatureCustomResolution: o.customResolution(),
	}
	if qp := o.QuickPlay; qp != nil {
		f[manifest.FeatureQuickPlaysSupport] = qp.LogPath != ""
		f[manifest.FeatureQuickPlaySingleplayer] = qp.Kind == QuickPlaySingleplayer
		f[manifest.FeatureQuickPlayMultiplayer] = qp.Kind == QuickPlayMultiplayer
		f[manifest.FeatureQuickPlayRealms] = qp.Kind == QuickPlayRealms
	}
	return f
}
