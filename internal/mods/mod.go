// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Relations a mod declares towards another.
const (
	Depends    Relation = "depends on"
	Recommends Relation = "recommends"
	Suggests   Relation = "suggests"
	Conflicts  Relation = "conflicts with"
	Breaks     Relation = "breaks"
	// Duplicate is reported when two files carry the same mod id.
	Duplicate Relation = "duplicates"
)

// Problem levels.
const (
	// Hard problems stop the game from loading.
	Hard Level = iota + 1
	// Soft problems leave the game running with missing features.
	Soft
	// Suggestive problems are hints.
	Suggestive
)

type (
	// Relation names how a requirement is checked.
	Relation string

	// Level grades a Problem.
	Level int

	// Mod is one mod id found in a jar, or built into the game or loader.
	Mod struct {
		ID          string
		Name        string
		Version     string
		Description string
		License     string
		// File is the jar name under the mods directory. Empty for builtins;
		// nested jars are reported under their outer jar.
		File string
		// Provided marks ids a mod declares as aliases of itself.
		Provided bool

		Depends    []Requirement
		Recommends []Requirement
		Suggests   []Requirement
		Conflicts  []Requirement
		Breaks     []Requirement
	}

	// Requirement names a mod id and the versions that satisfy it.
	Requirement struct {
		ID string
		// Range is the version constraint as declared. Empty accepts any
		// version.
		Range  string
		Reason string
		// Unless lists requirements that waive this one when any of them
		// is met.
		Unless []Requirement

		constraint *semver.Constraints
	}
)

// String returns "hard", "soft" or "suggestive".
func (l Level) String() string {
	switch l {
	case Hard:
		return "hard"
	case Soft:
		return "soft"
	case Suggestive:
		return "suggestive"
	default:
		return "unknown"
	}
}

// DisplayName is the name of the mod, falling back to its id.
func (m *Mod) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// newRequirement compiles rng. Constraints that do not parse are kept and
// compared as exact version strings.
func newRequirement(id, rng string) Requirement {
	r := Requirement{ID: id, Range: strings.TrimSpace(rng)}
	if r.Range == "" || r.Range == "*" {
		r.Range = ""
		return r
	}
	if c, err := semver.NewConstraint(r.Range); err == nil {
		r.constraint = c
	}
	return r
}

// anyOf joins alternative ranges; one of them has to match.
func anyOf(id string, ranges []string) Requirement {
	var kept []string
	for _, r := range ranges {
		r = strings.TrimSpace(r)
		if r == "" || r == "*" {
			return newRequirement(id, "")
		}
		kept = append(kept, r)
	}
	return newRequirement(id, strings.Join(kept, " || "))
}

// Accepts reports whether version satisfies the range. Versions that do
// not parse are unknown and accepted.
func (r *Requirement) Accepts(version string) bool {
	if r.Range == "" {
		return true
	}
	if r.constraint == nil {
		return version == "" || version == r.Range
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return true
	}
	if r.constraint.Check(v) {
		return true
	}
	// pre-releases of a version are judged like the release
	if v.Prerelease() != "" {
		if core, err := v.SetPrerelease(""); err == nil {
			return r.constraint.Check(&core)
		}
	}
	return false
}

// String renders the requirement the way it is shown to players.
func (r Requirement) String() string {
	var sb strings.Builder
	sb.WriteString(r.ID)
	if r.Range != "" {
		sb.WriteString(" ")
		sb.WriteString(r.Range)
	}
	if len(r.Unless) > 0 {
		alts := make([]string, len(r.Unless))
		for i, u := range r.Unless {
			alts[i] = u.String()
		}
		sb.WriteString(", unless ")
		sb.WriteString(strings.Join(alts, " or "))
	}
	if r.Reason != "" {
		sb.WriteString(" (")
		sb.WriteString(r.Reason)
		sb.WriteString(")")
	}
	return sb.String()
}
