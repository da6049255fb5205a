// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// parseFabric reads fabric.mod.json. Relations map a mod id to one version
// predicate or a list of alternatives.
func parseFabric(_ *jar, data []byte) ([]Mod, []string, error) {
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return nil, nil, errors.New("not a JSON object")
	}
	id := r.Get("id").String()
	if id == "" {
		return nil, nil, errors.New("no mod id")
	}

	m := Mod{
		ID:          id,
		Name:        r.Get("name").String(),
		Version:     knownValue(r.Get("version").String()),
		Description: r.Get("description").String(),
		License:     licenseOf(r.Get("license")),
		Depends:     fabricRelations(r.Get("depends")),
		Recommends:  fabricRelations(r.Get("recommends")),
		Suggests:    fabricRelations(r.Get("suggests")),
		Conflicts:   fabricRelations(r.Get("conflicts")),
		Breaks:      fabricRelations(r.Get("breaks")),
	}
	mods := []Mod{m}
	for _, p := range r.Get("provides").Array() {
		if alias := p.String(); alias != "" {
			mods = append(mods, Mod{ID: alias, Name: m.DisplayName(), License: m.License, Provided: true})
		}
	}

	var nested []string
	for _, j := range r.Get("jars").Array() {
		if f := j.Get("file").String(); f != "" {
			nested = append(nested, f)
		}
	}
	return mods, nested, nil
}

func fabricRelations(r gjson.Result) []Requirement {
	var out []Requirement
	r.ForEach(func(k, v gjson.Result) bool {
		if v.IsArray() {
			var ranges []string
			for _, alt := range v.Array() {
				ranges = append(ranges, alt.String())
			}
			out = append(out, anyOf(k.String(), ranges))
		} else {
			out = append(out, newRequirement(k.String(), v.String()))
		}
		return true
	})
	return out
}

// licenseOf reads a license given as a string, a list or an object with a
// name.
func licenseOf(r gjson.Result) string {
	switch {
	case r.IsArray():
		var names []string
		for _, l := range r.Array() {
			if n := licenseOf(l); n != "" {
				names = append(names, n)
			}
		}
		return strings.Join(names, ", ")
	case r.IsObject():
		if n := r.Get("name").String(); n != "" {
			return n
		}
		return r.Get("id").String()
	default:
		return r.String()
	}
}
