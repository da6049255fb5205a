// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"maps"
	"slices"
	"strings"

	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

// DefaultLibraryRepository is the base URL for libraries that carry neither
// a download entry nor a repository url.
const DefaultLibraryRepository = "https://libraries.minecraft.net/"

// nativesClassifierPrefix marks libraries that are themselves native
// archives, as opposed to the older natives map form.
const nativesClassifierPrefix = "natives-"

type (
	// Library is one classpath or native dependency.
	Library struct {
		Name      string            `json:"name"`
		Downloads *LibraryDownloads `json:"downloads,omitempty"`
		// URL is the Maven repository base for the repository form.
		URL     string            `json:"url,omitempty"`
		SHA1    string            `json:"sha1,omitempty"`
		Size    int64             `json:"size,omitempty"`
		Natives map[string]string `json:"natives,omitempty"`
		Extract *ExtractRules     `json:"extract,omitempty"`
		Rules   []Rule            `json:"rules,omitempty"`
	}

	// LibraryDownloads holds the main artifact and per-classifier artifacts.
	LibraryDownloads struct {
		Artifact    *Artifact           `json:"artifact,omitempty"`
		Classifiers map[string]Artifact `json:"classifiers,omitempty"`
	}

	// ExtractRules limits which archive entries a native library extracts.
	ExtractRules struct {
		Include []string `json:"include,omitempty"`
		Exclude []string `json:"exclude,omitempty"`
	}
)

// Coordinate parses the library name.
func (l *Library) Coordinate() (Coordinate, error) {
	return ParseCoordinate(l.Name)
}

// Key is the deduplication key: the coordinate without its version. Names
// that do not parse are keyed by the raw name.
func (l *Library) Key() string {
	c, err := l.Coordinate()
	if err != nil {
		return l.Name
	}
	return c.Key()
}

// Applies reports whether the library's rules allow it in env.
func (l *Library) Applies(env Environment) bool {
	return Allowed(l.Rules, env)
}

// IsNativeArchive reports whether the library is a native archive in the
// classifier form (for example org.lwjgl:lwjgl:3.3.1:natives-linux). Such
// libraries are both on the classpath and extracted.
func (l *Library) IsNativeArchive() bool {
	c, err := l.Coordinate()
	return err == nil && strings.HasPrefix(c.Classifier, nativesClassifierPrefix)
}

// NativeClassifier returns the natives-map classifier for p, with ${arch}
// expanded to the platform word size.
func (l *Library) NativeClassifier(p platform.Platform) (string, bool) {
	tmpl, ok := l.Natives[p.OS]
	if !ok || tmpl == "" {
		return "", false
	}
	return strings.ReplaceAll(tmpl, "${arch}", p.Bits()), true
}

// HasNatives reports whether the library carries native archives for p,
// in either form.
func (l *Library) HasNatives(p platform.Platform) bool {
	if _, ok := l.NativeClassifier(p); ok {
		return true
	}
	return l.IsNativeArchive()
}

// Artifact returns the main artifact. Libraries that only exist as natives
// map entries have none and are not placed on the classpath.
func (l *Library) Artifact() (Artifact, bool) {
	if l.Downloads != nil {
		if l.Downloads.Artifact == nil {
			return Artifact{}, false
		}
		a := *l.Downloads.Artifact
		if a.Path == "" {
			if c, err := l.Coordinate(); err == nil {
				a.Path = c.Path()
			}
		}
		return a, a.Path != ""
	}
	if len(l.Natives) > 0 {
		return Artifact{}, false
	}
	return l.repositoryArtifact("")
}

// NativeArtifact returns the natives-map artifact for p.
func (l *Library) NativeArtifact(p platform.Platform) (Artifact, bool) {
	classifier, ok := l.NativeClassifier(p)
	if !ok {
		return Artifact{}, false
	}
	if l.Downloads != nil {
		a, ok := l.Downloads.Classifiers[classifier]
		if !ok {
			return Artifact{}, false
		}
		if a.Path == "" {
			c, err := l.Coordinate()
			if err != nil {
				return Artifact{}, false
			}
			a.Path = c.WithClassifier(classifier).Path()
		}
		return a, true
	}
	return l.repositoryArtifact(classifier)
}

// repositoryArtifact builds the artifact for the Maven repository form.
func (l *Library) repositoryArtifact(classifier string) (Artifact, bool) {
	c, err := l.Coordinate()
	if err != nil {
		return Artifact{}, false
	}
	if classifier != "" {
		c = c.WithClassifier(classifier)
	}
	base := l.URL
	if base == "" {
		base = DefaultLibraryRepository
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	a := Artifact{Path: c.Path(), URL: base + c.Path()}
	// repository-form checksums describe the main artifact only
	if classifier == "" {
		a.SHA1 = l.SHA1
		a.Size = l.Size
	}
	return a, true
}

// Clone returns a deep copy.
func (l Library) Clone() Library {
	c := l
	if l.Downloads != nil {
		d := LibraryDownloads{Classifiers: maps.Clone(l.Downloads.Classifiers)}
		if l.Downloads.Artifact != nil {
			a := *l.Downloads.Artifact
			d.Artifact = &a
		}
		c.Downloads = &d
	}
	c.Natives = maps.Clone(l.Natives)
	if l.Extract != nil {
		e := ExtractRules{Include: slices.Clone(l.Extract.Include), Exclude: slices.Clone(l.Extract.Exclude)}
		c.Extract = &e
	}
	c.Rules = cloneRules(l.Rules)
	return c
}

// LayerLibraries layers child libraries over parent ones. A child entry
// replaces every parent entry with the same Key and takes the slot of the
// first of them; child entries with new keys are appended. Entries sharing a
// key within one layer are kept, since descriptors list a library once per
// OS rule set.
func LayerLibraries(parent, child []Library) []Library {
	byKey := make(map[string][]Library, len(child))
	var added []Library
	for _, l := range child {
		k := l.Key()
		byKey[k] = append(byKey[k], l)
	}

	out := make([]Library, 0, len(parent)+len(child))
	placed := make(map[string]bool, len(byKey))
	for _, l := range parent {
		k := l.Key()
		override, ok := byKey[k]
		if !ok {
			out = append(out, l)
			continue
		}
		if !placed[k] {
			out = append(out, override...)
			placed[k] = true
		}
	}
	for _, l := range child {
		if !placed[l.Key()] {
			added = append(added, l)
		}
	}
	return append(out, added...)
}
