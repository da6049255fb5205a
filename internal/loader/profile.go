// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"github.com/blocklaunch/blocklaunch/pkg/digest"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

type (
	// Profile is a planned installation.
	Profile struct {
		Variant Variant
		Version string
		// Descriptor is the composed version descriptor; its InheritsFrom
		// names the base version.
		Descriptor *manifest.Version
		// Artifacts are library files to stage before any step runs.
		Artifacts []Artifact
		// Steps run in order after the artifacts are staged.
		Steps []Step
		// Data holds the client-side install data values referenced as
		// {KEY} from step arguments.
		Data map[string]string
	}

	// Artifact is a library file addressed relative to the library directory.
	Artifact struct {
		Path   string
		URL    string
		Digest digest.Digest
		Size   int64
	}

	// Step is one processor invocation: java -cp <classpath:jar> <Main-Class> <args>.
	Step struct {
		Jar       manifest.Coordinate
		Classpath []manifest.Coordinate
		Args      []string
		// Outputs maps an output path template to its expected sha1 template.
		Outputs map[string]string
	}
)

// Name labels the step by its jar.
func (s Step) Name() string {
	return s.Jar.Artifact
}

// artifactsFor collects the downloadable artifacts of libs that apply in
// env. Libraries without a URL are produced by the installation itself.
func artifactsFor(libs []manifest.Library, env manifest.Environment) []Artifact {
	var out []Artifact
	for i := range libs {
		lib := &libs[i]
		if !lib.Applies(env) {
			continue
		}
		if a, ok := lib.Artifact(); ok && a.URL != "" {
			out = append(out, Artifact{Path: a.Path, URL: a.URL, Digest: digest.SHA1Hex(a.SHA1), Size: a.Size})
		}
		if a, ok := lib.NativeArtifact(env.Platform); ok && a.URL != "" {
			out = append(out, Artifact{Path: a.Path, URL: a.URL, Digest: digest.SHA1Hex(a.SHA1), Size: a.Size})
		}
	}
	return out
}

// dedupeArtifacts keeps the first artifact per path.
func dedupeArtifacts(in []Artifact) []Artifact {
	seen := make(map[string]bool, len(in))
	out := make([]Artifact, 0, len(in))
	for _, a := range in {
		if seen[a.Path] {
			continue
		}
		seen[a.Path] = true
		out = append(out, a)
	}
	return out
}
