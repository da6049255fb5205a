// SPDX-License-Identifier: MPL-2.0

package download

import "strings"

type (
	// Mirror is the base URL of a BMCLAPI-compatible mirror, for example
	// "https://bmclapi2.bangbang93.com". The empty Mirror disables rewriting.
	Mirror string

	mirrorRule struct {
		prefix string
		path   string
	}
)

// mirrorRules maps upstream host prefixes to the mirror path serving them.
// Longer prefixes come first so the most specific rule wins.
var mirrorRules = []mirrorRule{
	{"maven.neoforged.net/releases/", "/maven/"},
	{"files.minecraftforge.net/maven/", "/maven/"},
	{"resources.download.minecraft.net/", "/assets/"},
	{"libraries.minecraft.net/", "/maven/"},
	{"maven.minecraftforge.net/", "/maven/"},
	{"maven.fabricmc.net/", "/maven/"},
	{"meta.fabricmc.net/", "/fabric-meta/"},
	{"launchermeta.mojang.com/", "/"},
	{"piston-meta.mojang.com/", "/"},
	{"piston-data.mojang.com/", "/"},
	{"launcher.mojang.com/", "/"},
}

// Rewrite maps rawURL onto the mirror. It reports false when the mirror is
// disabled or no rule matches.
func (m Mirror) Rewrite(rawURL string) (string, bool) {
	if m == "" {
		return rawURL, false
	}
	rest, ok := strings.CutPrefix(rawURL, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(rawURL, "http://")
	}
	if !ok {
		return rawURL, false
	}

	base := strings.TrimRight(string(m), "/")
	for _, r := range mirrorRules {
		if tail, found := strings.CutPrefix(rest, r.prefix); found {
			return base + r.path + tail, true
		}
	}
	return rawURL, false
}

// Sources returns the ordered source list for rawURL: the mirrored URL first
// when a rule matches, then the origin.
func (m Mirror) Sources(rawURL string) []string {
	if mirrored, ok := m.Rewrite(rawURL); ok {
		return []string{mirrored, rawURL}
	}
	return []string{rawURL}
}
