// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"errors"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
)

const (
	// jarVersionPlaceholder is replaced by the jar's Implementation-Version.
	jarVersionPlaceholder = "${file.jarVersion}"
	// jarJarMetadata lists the jars NeoForge and Forge load from inside a mod.
	jarJarMetadata = "META-INF/jarjar/metadata.json"
)

type (
	modsTOML struct {
		License      string                      `toml:"license"`
		Mods         []modsTOMLMod               `toml:"mods"`
		Dependencies map[string][]modsTOMLDepend `toml:"dependencies"`
	}

	modsTOMLMod struct {
		ModID       string `toml:"modId"`
		Version     string `toml:"version"`
		DisplayName string `toml:"displayName"`
		Description string `toml:"description"`
	}

	modsTOMLDepend struct {
		ModID string `toml:"modId"`
		// Type is required, optional, discouraged or incompatible. Older
		// files set Mandatory instead.
		Type         string `toml:"type"`
		Mandatory    bool   `toml:"mandatory"`
		VersionRange string `toml:"versionRange"`
		Side         string `toml:"side"`
		Reason       string `toml:"reason"`
	}
)

// parseModsTOML reads META-INF/mods.toml or neoforge.mods.toml. Server-only
// dependencies are skipped.
func parseModsTOML(j *jar, data []byte) ([]Mod, []string, error) {
	var doc modsTOML
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Mods) == 0 {
		return nil, nil, errors.New("no [[mods]] entry")
	}

	mods := make([]Mod, 0, len(doc.Mods))
	for _, dm := range doc.Mods {
		if dm.ModID == "" {
			return nil, nil, errors.New("mod entry without modId")
		}
		version := dm.Version
		switch version {
		case "":
			version = "1"
		case jarVersionPlaceholder:
			version = j.implementationVersion()
		}

		m := Mod{
			ID:          dm.ModID,
			Name:        dm.DisplayName,
			Version:     knownValue(version),
			Description: strings.TrimSpace(dm.Description),
			License:     doc.License,
		}
		for _, d := range doc.Dependencies[dm.ModID] {
			if strings.EqualFold(d.Side, "SERVER") || d.ModID == "" {
				continue
			}
			req := Requirement{ID: d.ModID}
			if rng, err := mavenRange(d.VersionRange); err == nil {
				req = newRequirement(d.ModID, rng)
			}
			req.Reason = d.Reason

			switch strings.ToLower(d.Type) {
			case "required":
				m.Depends = append(m.Depends, req)
			case "optional":
				m.Recommends = append(m.Recommends, req)
			case "discouraged":
				m.Conflicts = append(m.Conflicts, req)
			case "incompatible":
				m.Breaks = append(m.Breaks, req)
			case "":
				if d.Mandatory {
					m.Depends = append(m.Depends, req)
				} else {
					m.Recommends = append(m.Recommends, req)
				}
			}
		}
		mods = append(mods, m)
	}

	var nested []string
	if meta, err := j.read(jarJarMetadata); err == nil {
		for _, e := range gjson.GetBytes(meta, "jars").Array() {
			if p := e.Get("path").String(); p != "" {
				nested = append(nested, p)
			}
		}
	}
	return mods, nested, nil
}

// parseMcmodInfo reads the mcmod.info of Forge builds before 1.13, a list
// of mods or an object holding it under modList. mcversion pins the game
// version.
func parseMcmodInfo(_ *jar, data []byte) ([]Mod, []string, error) {
	r := gjson.ParseBytes(data)
	if r.IsObject() {
		r = r.Get("modList")
	}
	if !r.IsArray() {
		return nil, nil, errors.New("no mod list")
	}

	var mods []Mod
	for _, e := range r.Array() {
		id := e.Get("modid").String()
		if id == "" {
			continue
		}
		m := Mod{
			ID:          id,
			Name:        e.Get("name").String(),
			Version:     knownValue(e.Get("version").String()),
			Description: strings.TrimSpace(e.Get("description").String()),
		}
		if e.Get("useDependencyInformation").Bool() {
			for _, dep := range e.Get("requiredMods").Array() {
				m.Depends = append(m.Depends, mcmodRequirement(dep.String()))
			}
		}
		if mc := knownValue(e.Get("mcversion").String()); mc != "" {
			m.Depends = append(m.Depends, newRequirement("minecraft", "="+mc))
		}
		mods = append(mods, m)
	}
	if len(mods) == 0 {
		return nil, nil, errors.New("no mod with a modid")
	}
	return mods, nil, nil
}

// mcmodRequirement parses "id" or "id@range".
func mcmodRequirement(s string) Requirement {
	id, rng, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok {
		return newRequirement(id, "")
	}
	c, err := mavenRange(rng)
	if err != nil {
		return newRequirement(id, "")
	}
	return newRequirement(id, c)
}
