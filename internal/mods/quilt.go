// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"errors"

	"github.com/tidwall/gjson"
)

// parseQuilt reads quilt.mod.json. Optional dependencies are
// recommendations and optional breaks are conflicts.
func parseQuilt(_ *jar, data []byte) ([]Mod, []string, error) {
	ql := gjson.GetBytes(data, "quilt_loader")
	if !ql.IsObject() {
		return nil, nil, errors.New("no quilt_loader section")
	}
	id := ql.Get("id").String()
	if id == "" {
		return nil, nil, errors.New("no mod id")
	}

	meta := ql.Get("metadata")
	m := Mod{
		ID:          id,
		Name:        meta.Get("name").String(),
		Version:     knownValue(ql.Get("version").String()),
		Description: meta.Get("description").String(),
		License:     licenseOf(meta.Get("license")),
	}
	for _, d := range quiltDependencies(ql.Get("depends")) {
		if d.optional {
			m.Recommends = append(m.Recommends, d.Requirement)
		} else {
			m.Depends = append(m.Depends, d.Requirement)
		}
	}
	for _, d := range quiltDependencies(ql.Get("breaks")) {
		if d.optional {
			m.Conflicts = append(m.Conflicts, d.Requirement)
		} else {
			m.Breaks = append(m.Breaks, d.Requirement)
		}
	}

	mods := []Mod{m}
	for _, p := range ql.Get("provides").Array() {
		alias := Mod{Name: m.DisplayName(), License: m.License, Provided: true}
		if p.IsObject() {
			alias.ID = p.Get("id").String()
			alias.Version = knownValue(p.Get("version").String())
		} else {
			alias.ID = p.String()
		}
		if alias.ID != "" {
			mods = append(mods, alias)
		}
	}

	var nested []string
	for _, j := range ql.Get("jars").Array() {
		if f := j.String(); f != "" {
			nested = append(nested, f)
		}
	}
	return mods, nested, nil
}

type quiltDependency struct {
	Requirement
	optional bool
}

// quiltDependencies reads a dependency given as an id string, an object
// or a list of either.
func quiltDependencies(r gjson.Result) []quiltDependency {
	if !r.Exists() {
		return nil
	}
	items := []gjson.Result{r}
	if r.IsArray() {
		items = r.Array()
	}

	var out []quiltDependency
	for _, it := range items {
		if !it.IsObject() {
			if id := it.String(); id != "" {
				out = append(out, quiltDependency{Requirement: newRequirement(id, "")})
			}
			continue
		}
		id := it.Get("id").String()
		if id == "" {
			continue
		}
		// the loader documents "versions"; some mods write "version"
		versions := it.Get("versions")
		if !versions.Exists() {
			versions = it.Get("version")
		}
		var req Requirement
		if versions.IsArray() {
			var ranges []string
			for _, v := range versions.Array() {
				ranges = append(ranges, v.String())
			}
			req = anyOf(id, ranges)
		} else {
			req = newRequirement(id, versions.String())
		}
		req.Reason = it.Get("reason").String()
		for _, u := range quiltDependencies(it.Get("unless")) {
			req.Unless = append(req.Unless, u.Requirement)
		}
		out = append(out, quiltDependency{Requirement: req, optional: it.Get("optional").Bool()})
	}
	return out
}
