// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"encoding/xml"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// DefaultForgeMavenURL is the Maven group URL hosting Forge installers.
	DefaultForgeMavenURL = "https://maven.minecraftforge.net/net/minecraftforge"
	// DefaultForgePromotionsURL lists recommended and latest Forge builds.
	DefaultForgePromotionsURL = "https://files.minecraftforge.net/net/minecraftforge/forge/promotions_slim.json"
	// DefaultNeoForgeMavenURL is the Maven group URL hosting NeoForge installers.
	DefaultNeoForgeMavenURL = "https://maven.neoforged.net/releases/net/neoforged"
)

// neoForgeLegacyGame is the only game version NeoForge published under the
// forge artifact name, with Forge-style build numbers.
const neoForgeLegacyGame = "1.20.1"

type (
	// forgeLike serves Forge and NeoForge, which ship installer jars
	// carrying an install profile and a processor chain.
	forgeLike struct {
		variant Variant
		cfg     providerConfig
	}

	mavenMetadata struct {
		Versioning struct {
			Latest   string   `xml:"latest"`
			Release  string   `xml:"release"`
			Versions []string `xml:"versions>version"`
		} `xml:"versioning"`
	}

	forgePromotions struct {
		Promos map[string]string `json:"promos"`
	}
)

// NewForge returns the Forge provider.
func NewForge(opts ...ProviderOption) Provider {
	cfg := newProviderConfig(DefaultForgeMavenURL, opts)
	if cfg.promotionsURL == "" {
		cfg.promotionsURL = DefaultForgePromotionsURL
	}
	return &forgeLike{variant: VariantForge, cfg: cfg}
}

// NewNeoForge returns the NeoForge provider.
func NewNeoForge(opts ...ProviderOption) Provider {
	return &forgeLike{variant: VariantNeoForge, cfg: newProviderConfig(DefaultNeoForgeMavenURL, opts)}
}

// Variant implements Provider.
func (f *forgeLike) Variant() Variant { return f.variant }

// artifact returns the Maven artifact publishing builds for gameVersion.
func (f *forgeLike) artifact(gameVersion string) string {
	if f.variant == VariantNeoForge && gameVersion != neoForgeLegacyGame {
		return "neoforge"
	}
	return "forge"
}

// supported reports whether the variant publishes installers for
// gameVersion at all.
func (f *forgeLike) supported(gameVersion string) (bool, string) {
	minor, patch, ok := parseReleaseVersion(gameVersion)
	if !ok {
		return false, "only release game versions are supported"
	}
	switch f.variant {
	case VariantForge:
		if minor < 5 || (minor == 5 && patch < 2) {
			return false, "installers exist from 1.5.2 onwards"
		}
	case VariantNeoForge:
		if minor < 20 || (minor == 20 && patch == 0) {
			return false, "builds exist from 1.20.1 onwards"
		}
	}
	return true, ""
}

// matches reports whether a published build belongs to gameVersion.
func (f *forgeLike) matches(build, gameVersion string) bool {
	if f.variant == VariantForge || gameVersion == neoForgeLegacyGame {
		return strings.HasPrefix(build, gameVersion+"-")
	}
	return strings.HasPrefix(build, neoForgePrefix(gameVersion))
}

// neoForgePrefix maps 1.20.4 to "20.4." and 1.21 to "21.0.".
func neoForgePrefix(gameVersion string) string {
	rest := strings.TrimPrefix(gameVersion, "1.")
	if !strings.Contains(rest, ".") {
		rest += ".0"
	}
	return rest + "."
}

// parseReleaseVersion splits "1.M[.P]" into M and P.
func parseReleaseVersion(v string) (minor, patch int, ok bool) {
	parts := strings.Split(v, ".")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "1" {
		return 0, 0, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 3 {
		if patch, err = strconv.Atoi(parts[2]); err != nil {
			return 0, 0, false
		}
	}
	return minor, patch, true
}

// Versions implements VersionResolver.
func (f *forgeLike) Versions(ctx context.Context, gameVersion string) ([]string, error) {
	if ok, _ := f.supported(gameVersion); !ok {
		return nil, nil
	}
	u := fmt.Sprintf("%s/%s/maven-metadata.xml", f.cfg.baseURL, f.artifact(gameVersion))
	data, err := f.cfg.meta.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("listing %s versions: %w", f.variant, err)
	}
	var md mavenMetadata
	if err := xml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", u, err)
	}

	var out []string
	for _, v := range md.Versioning.Versions {
		if f.matches(v, gameVersion) {
			out = append(out, v)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int { return compareBuilds(b, a) })
	return out, nil
}

// ResolveVersion implements VersionResolver. Exact requests may name the
// full build ("1.20.1-47.1.0") or the loader part ("47.1.0").
func (f *forgeLike) ResolveVersion(ctx context.Context, gameVersion, requested string) (string, error) {
	unsupported := &UnsupportedError{Variant: f.variant, GameVersion: gameVersion, Requested: requested}
	if ok, reason := f.supported(gameVersion); !ok {
		unsupported.Reason = reason
		return "", unsupported
	}

	builds, err := f.Versions(ctx, gameVersion)
	if err != nil {
		return "", err
	}
	if len(builds) == 0 {
		unsupported.Reason = "no builds for this game version"
		return "", unsupported
	}

	switch requested {
	case Latest:
		if f.variant == VariantForge {
			if b, ok := f.promoted(ctx, gameVersion, "latest", builds); ok {
				return b, nil
			}
		}
		return builds[0], nil
	case Recommended, "":
		if f.variant == VariantForge {
			for _, kind := range []string{"recommended", "latest"} {
				if b, ok := f.promoted(ctx, gameVersion, kind, builds); ok {
					return b, nil
				}
			}
			return builds[0], nil
		}
		for _, b := range builds {
			if !isUnstableBuild(b) {
				return b, nil
			}
		}
		return builds[0], nil
	default:
		if b, ok := findBuild(builds, gameVersion, requested); ok {
			return b, nil
		}
		unsupported.Reason = "no such build"
		return "", unsupported
	}
}

// promoted looks up a Forge promotion and maps it to a published build.
// Promotion lookups are best effort.
func (f *forgeLike) promoted(ctx context.Context, gameVersion, kind string, builds []string) (string, bool) {
	var p forgePromotions
	if err := f.cfg.meta.getJSON(ctx, f.cfg.promotionsURL, &p); err != nil {
		return "", false
	}
	v, ok := p.Promos[gameVersion+"-"+kind]
	if !ok {
		return "", false
	}
	return findBuild(builds, gameVersion, v)
}

// findBuild matches want against builds; old Forge builds carry a trailing
// "-<game version>" that requests usually omit.
func findBuild(builds []string, gameVersion, want string) (string, bool) {
	candidates := []string{want, gameVersion + "-" + want}
	for _, c := range candidates {
		for _, b := range builds {
			if b == c || strings.HasPrefix(b, c+"-") {
				return b, true
			}
		}
	}
	return "", false
}

func isUnstableBuild(b string) bool {
	lower := strings.ToLower(b)
	return strings.Contains(lower, "beta") || strings.Contains(lower, "alpha") || strings.Contains(lower, "rc")
}

// compareBuilds orders builds by semver when both parse, else by numeric
// segments.
func compareBuilds(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareSegments(a, b)
}

func compareSegments(a, b string) int {
	split := func(s string) []string {
		return strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' || r == '+' })
	}
	sa, sb := split(a), split(b)
	for i := 0; i < len(sa) && i < len(sb); i++ {
		na, errA := strconv.Atoi(sa[i])
		nb, errB := strconv.Atoi(sb[i])
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				return na - nb
			}
		default:
			if c := strings.Compare(sa[i], sb[i]); c != 0 {
				return c
			}
		}
	}
	return len(sa) - len(sb)
}
