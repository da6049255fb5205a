// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"regexp"

	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

// Rule actions.
const (
	ActionAllow    = "allow"
	ActionDisallow = "disallow"
)

// Launch feature flags referenced by argument rules.
const (
	FeatureDemoUser              = "is_demo_user"
	FeatureCustomResolution      = "has_custom_resolution"
	FeatureQuickPlaysSupport     = "has_quick_plays_support"
	FeatureQuickPlaySingleplayer = "is_quick_play_singleplayer"
	FeatureQuickPlayMultiplayer  = "is_quick_play_multiplayer"
	FeatureQuickPlayRealms       = "is_quick_play_realms"
)

type (
	// Rule allows or disallows an entry when its conditions all match.
	Rule struct {
		Action   string          `json:"action"`
		OS       *OSRule         `json:"os,omitempty"`
		Features map[string]bool `json:"features,omitempty"`
	}

	// OSRule matches on OS name, architecture and an OS version regex.
	OSRule struct {
		Name    string `json:"name,omitempty"`
		Arch    string `json:"arch,omitempty"`
		Version string `json:"version,omitempty"`
	}

	// Environment is what rules are evaluated against.
	Environment struct {
		Platform platform.Platform
		Features map[string]bool
	}
)

// Allowed evaluates rules in order. An empty list allows; otherwise the
// entry starts disallowed and each matching rule sets the outcome to its
// action, so the last matching rule wins.
func Allowed(rules []Rule, env Environment) bool {
	if len(rules) == 0 {
		return true
	}
	allowed := false
	for _, r := range rules {
		if r.matches(env) {
			allowed = r.Action == ActionAllow
		}
	}
	return allowed
}

func (r Rule) matches(env Environment) bool {
	if r.OS != nil && !r.OS.matches(env.Platform) {
		return false
	}
	for name, want := range r.Features {
		if env.Features[name] != want {
			return false
		}
	}
	return true
}

func (o *OSRule) matches(p platform.Platform) bool {
	if o.Name != "" && o.Name != p.OS {
		return false
	}
	if o.Arch != "" && o.Arch != p.Arch && !(o.Arch == platform.ArchX86 && p.Bits() == "32") {
		return false
	}
	if o.Version != "" {
		re, err := regexp.Compile(o.Version)
		if err != nil || !re.MatchString(p.Version) {
			return false
		}
	}
	return true
}

func cloneRules(in []Rule) []Rule {
	if in == nil {
		return nil
	}
	out := make([]Rule, len(in))
	for i, r := range in {
		out[i] = r
		if r.OS != nil {
			osr := *r.OS
			out[i].OS = &osr
		}
		if r.Features != nil {
			out[i].Features = make(map[string]bool, len(r.Features))
			for k, v := range r.Features {
				out[i].Features[k] = v
			}
		}
	}
	return out
}
