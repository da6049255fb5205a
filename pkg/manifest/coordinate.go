// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"path"
	"strings"
)

// Coordinate is a Maven coordinate:
// group:artifact:version[:classifier][@extension].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate parses a Maven coordinate. The extension defaults to "jar".
func ParseCoordinate(s string) (Coordinate, error) {
	body, ext, hasExt := strings.Cut(strings.TrimSpace(s), "@")
	if hasExt && ext == "" {
		return Coordinate{}, fmt.Errorf("%w: %q has an empty extension", ErrInvalidCoordinate, s)
	}
	if !hasExt {
		ext = "jar"
	}

	parts := strings.Split(body, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("%w: %q (want group:artifact:version[:classifier][@ext])", ErrInvalidCoordinate, s)
	}
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidCoordinate, s)
		}
	}

	c := Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2], Extension: ext}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// MustParseCoordinate is ParseCoordinate for literals known to be valid.
func MustParseCoordinate(s string) Coordinate {
	c, err := ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Path returns the repository-relative path, always with forward slashes:
// group/with/slashes/artifact/version/artifact-version[-classifier].ext.
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	file += "." + c.extension()
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, file)
}

// Key identifies the library slot the coordinate occupies, ignoring the
// version: two coordinates with the same key are the same library at
// possibly different versions.
func (c Coordinate) Key() string {
	k := c.Group + ":" + c.Artifact
	if c.Classifier != "" {
		k += ":" + c.Classifier
	}
	if ext := c.extension(); ext != "jar" {
		k += "@" + ext
	}
	return k
}

// WithClassifier returns a copy with the classifier replaced.
func (c Coordinate) WithClassifier(classifier string) Coordinate {
	c.Classifier = classifier
	return c
}

// String formats the coordinate, omitting a default "jar" extension.
func (c Coordinate) String() string {
	s := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	if ext := c.extension(); ext != "jar" {
		s += "@" + ext
	}
	return s
}

func (c Coordinate) extension() string {
	if c.Extension == "" {
		return "jar"
	}
	return c.Extension
}
