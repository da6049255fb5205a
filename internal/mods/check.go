// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"cmp"
	"fmt"
	"slices"
)

// Problem is a relation a mod declares that the installed set violates.
type Problem struct {
	Level    Level
	Relation Relation
	// Source is the display name of the declaring mod and File its jar.
	Source string
	File   string
	// Requirement is what was declared. For Duplicate it holds the id.
	Requirement Requirement
	// Other is the file of the first copy of a Duplicate, empty for the
	// game or loader.
	Other string
	// Found is the version of the installed mod the requirement names,
	// empty when it is missing or its version is unknown.
	Found string
	// Present reports whether a mod with the requirement's id is installed.
	Present bool
}

// String renders the problem for players.
func (p Problem) String() string {
	if p.Relation == Duplicate {
		other := p.Other
		if other == "" {
			other = "the game or loader"
		}
		return fmt.Sprintf("%s (%s) %s %s from %s", p.Source, p.File, p.Relation, p.Requirement.ID, other)
	}

	msg := fmt.Sprintf("%s %s %s", p.Source, p.Relation, p.Requirement)
	switch {
	case p.Present && p.Found != "":
		return msg + "; installed: " + p.Found
	case p.Present:
		return msg + "; installed"
	default:
		return msg + "; missing"
	}
}

// Check evaluates every relation of mods against the set itself. Builtins
// of the game and loader belong in mods. Problems are ordered by level,
// then by the order of mods and of their declarations.
func Check(mods []Mod) []Problem {
	idx := make(map[string]*Mod, len(mods))
	var problems []Problem
	for i := range mods {
		m := &mods[i]
		prev, ok := idx[m.ID]
		switch {
		case !ok, prev.Provided && !m.Provided:
			idx[m.ID] = m
		case !prev.Provided && !m.Provided && prev.File != m.File:
			problems = append(problems, Problem{
				Level:       Hard,
				Relation:    Duplicate,
				Source:      m.DisplayName(),
				File:        m.File,
				Requirement: Requirement{ID: m.ID},
				Other:       prev.File,
				Found:       prev.Version,
				Present:     true,
			})
		}
	}

	for i := range mods {
		m := &mods[i]
		rel := []struct {
			reqs     []Requirement
			relation Relation
			level    Level
			negate   bool
		}{
			{m.Depends, Depends, Hard, false},
			{m.Recommends, Recommends, Soft, false},
			{m.Suggests, Suggests, Suggestive, false},
			{m.Conflicts, Conflicts, Soft, true},
			{m.Breaks, Breaks, Hard, true},
		}
		for _, r := range rel {
			for _, req := range r.reqs {
				if waived(idx, req) || matches(idx, req) != r.negate {
					continue
				}
				p := Problem{Level: r.level, Relation: r.relation, Source: m.DisplayName(), File: m.File, Requirement: req}
				if found, ok := idx[req.ID]; ok {
					p.Present, p.Found = true, found.Version
				}
				problems = append(problems, p)
			}
		}
	}

	slices.SortStableFunc(problems, func(a, b Problem) int { return cmp.Compare(a.Level, b.Level) })
	return problems
}

// matches reports whether a mod satisfying req is installed.
func matches(idx map[string]*Mod, req Requirement) bool {
	m, ok := idx[req.ID]
	return ok && req.Accepts(m.Version)
}

// waived reports whether one of req's alternatives is installed.
func waived(idx map[string]*Mod, req Requirement) bool {
	for _, u := range req.Unless {
		if matches(idx, u) || waived(idx, u) {
			return true
		}
	}
	return false
}
