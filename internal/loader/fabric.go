// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Masterminds/semver/v3"

	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

const (
	// DefaultFabricMetaURL is the Fabric metadata API.
	DefaultFabricMetaURL = "https://meta.fabricmc.net/v2"
	// DefaultQuiltMetaURL is the Quilt metadata API.
	DefaultQuiltMetaURL = "https://meta.quiltmc.org/v3"
)

type (
	// fabricLike serves Fabric and Quilt, whose metadata APIs share a layout
	// and publish ready-made profile descriptors.
	fabricLike struct {
		variant Variant
		cfg     providerConfig
	}

	fabricLoaderEntry struct {
		Loader struct {
			Version string `json:"version"`
			Maven   string `json:"maven"`
			// Stable is absent from the Quilt API.
			Stable *bool `json:"stable"`
		} `json:"loader"`
	}
)

// NewFabric returns the Fabric provider.
func NewFabric(opts ...ProviderOption) Provider {
	return &fabricLike{variant: VariantFabric, cfg: newProviderConfig(DefaultFabricMetaURL, opts)}
}

// NewQuilt returns the Quilt provider.
func NewQuilt(opts ...ProviderOption) Provider {
	return &fabricLike{variant: VariantQuilt, cfg: newProviderConfig(DefaultQuiltMetaURL, opts)}
}

// Variant implements Provider.
func (f *fabricLike) Variant() Variant { return f.variant }

func (f *fabricLike) entries(ctx context.Context, gameVersion string) ([]fabricLoaderEntry, error) {
	u := fmt.Sprintf("%s/versions/loader/%s", f.cfg.baseURL, url.PathEscape(gameVersion))
	var entries []fabricLoaderEntry
	if err := f.cfg.meta.getJSON(ctx, u, &entries); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s versions: %w", f.variant, err)
	}
	return entries, nil
}

// Versions implements VersionResolver.
func (f *fabricLike) Versions(ctx context.Context, gameVersion string) ([]string, error) {
	entries, err := f.entries(ctx, gameVersion)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Loader.Version)
	}
	return out, nil
}

// ResolveVersion implements VersionResolver. The API lists builds newest
// first; Recommended is the first stable one.
func (f *fabricLike) ResolveVersion(ctx context.Context, gameVersion, requested string) (string, error) {
	entries, err := f.entries(ctx, gameVersion)
	if err != nil {
		return "", err
	}
	unsupported := &UnsupportedError{Variant: f.variant, GameVersion: gameVersion, Requested: requested}
	if len(entries) == 0 {
		unsupported.Reason = "no loader builds for this game version"
		return "", unsupported
	}

	switch requested {
	case Latest:
		return entries[0].Loader.Version, nil
	case Recommended, "":
		for _, e := range entries {
			if e.stable() {
				return e.Loader.Version, nil
			}
		}
		return entries[0].Loader.Version, nil
	default:
		for _, e := range entries {
			if e.Loader.Version == requested {
				return requested, nil
			}
		}
		unsupported.Reason = "no such loader build"
		return "", unsupported
	}
}

// stable uses the API flag when present, else treats builds without a
// semver prerelease as stable.
func (e fabricLoaderEntry) stable() bool {
	if e.Loader.Stable != nil {
		return *e.Loader.Stable
	}
	v, err := semver.NewVersion(e.Loader.Version)
	return err == nil && v.Prerelease() == ""
}

// Plan implements Planner. The published profile is already a descriptor
// inheriting from the game version.
func (f *fabricLike) Plan(ctx context.Context, ws *Workspace, base *manifest.Version, version string) (*Profile, error) {
	u := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json",
		f.cfg.baseURL, url.PathEscape(base.ID), url.PathEscape(version))
	data, err := f.cfg.meta.get(ctx, u)
	if err != nil {
		if isNotFound(err) {
			return nil, &UnsupportedError{Variant: f.variant, GameVersion: base.ID, Requested: version, Reason: "no profile published"}
		}
		return nil, fmt.Errorf("fetching %s profile: %w", f.variant, err)
	}

	desc, err := manifest.Decode("", data)
	if err != nil {
		return nil, err
	}
	if desc.ID == "" {
		desc.ID = fmt.Sprintf("%s-loader-%s-%s", f.variant, version, base.ID)
	}
	desc.InheritsFrom = base.ID

	return &Profile{
		Variant:    f.variant,
		Version:    version,
		Descriptor: desc,
		Artifacts:  dedupeArtifacts(artifactsFor(desc.Libraries, ws.Environment())),
	}, nil
}
