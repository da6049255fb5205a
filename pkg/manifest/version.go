// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Release types carried in Version.Type.
const (
	TypeRelease  = "release"
	TypeSnapshot = "snapshot"
	TypeOldBeta  = "old_beta"
	TypeOldAlpha = "old_alpha"
)

// Download keys in Version.Downloads.
const (
	DownloadClient         = "client"
	DownloadClientMappings = "client_mappings"
	DownloadServer         = "server"
)

type (
	// Version is a version descriptor, either a vanilla release or a loader
	// profile that names its base in InheritsFrom.
	Version struct {
		ID                 string              `json:"id"`
		InheritsFrom       string              `json:"inheritsFrom,omitempty"`
		Type               string              `json:"type,omitempty"`
		MainClass          string              `json:"mainClass,omitempty"`
		Arguments          *Arguments          `json:"arguments,omitempty"`
		MinecraftArguments string              `json:"minecraftArguments,omitempty"`
		Libraries          []Library           `json:"libraries,omitempty"`
		AssetIndex         *AssetIndexRef      `json:"assetIndex,omitempty"`
		Assets             string              `json:"assets,omitempty"`
		JavaVersion        *JavaVersion        `json:"javaVersion,omitempty"`
		Downloads          map[string]Artifact `json:"downloads,omitempty"`
		Logging            *Logging            `json:"logging,omitempty"`
		ReleaseTime        *time.Time          `json:"releaseTime,omitempty"`
		Time               *time.Time          `json:"time,omitempty"`
		// Jar names the version whose client jar is launched when it differs
		// from ID.
		Jar string `json:"jar,omitempty"`
	}

	// Arguments holds the modern argument lists.
	Arguments struct {
		Game []Argument `json:"game,omitempty"`
		JVM  []Argument `json:"jvm,omitempty"`
	}

	// Argument is a plain token or a rule-gated group of tokens.
	Argument struct {
		Rules  []Rule
		Values []string
	}

	// Artifact is a downloadable file with its integrity metadata.
	Artifact struct {
		Path string `json:"path,omitempty"`
		URL  string `json:"url"`
		SHA1 string `json:"sha1,omitempty"`
		Size int64  `json:"size,omitempty"`
	}

	// AssetIndexRef points at the asset index for a version.
	AssetIndexRef struct {
		ID        string `json:"id"`
		SHA1      string `json:"sha1,omitempty"`
		Size      int64  `json:"size,omitempty"`
		TotalSize int64  `json:"totalSize,omitempty"`
		URL       string `json:"url"`
	}

	// JavaVersion is the minimum runtime a version needs.
	JavaVersion struct {
		Component    string `json:"component,omitempty"`
		MajorVersion int    `json:"majorVersion"`
	}

	// Logging configures the client log framework.
	Logging struct {
		Client *LoggingClient `json:"client,omitempty"`
	}

	// LoggingClient is the client logging entry; Argument holds a
	// ${path} placeholder for the config file location.
	LoggingClient struct {
		Argument string      `json:"argument"`
		File     LoggingFile `json:"file"`
		Type     string      `json:"type,omitempty"`
	}

	// LoggingFile is the downloadable logging configuration.
	LoggingFile struct {
		ID   string `json:"id"`
		SHA1 string `json:"sha1,omitempty"`
		Size int64  `json:"size,omitempty"`
		URL  string `json:"url"`
	}
)

// Plain returns an unconditional argument.
func Plain(values ...string) Argument {
	return Argument{Values: values}
}

// UnmarshalJSON accepts a bare string or {"rules": [...], "value": string|[]string}.
func (a *Argument) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Argument{Values: []string{s}}
		return nil
	}

	var raw struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("argument: %w", err)
	}

	var values []string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		values = []string{s}
	} else if err := json.Unmarshal(raw.Value, &values); err != nil {
		return fmt.Errorf("argument value: %w", err)
	}
	*a = Argument{Rules: raw.Rules, Values: values}
	return nil
}

// MarshalJSON writes a bare string for a single unconditional token.
func (a Argument) MarshalJSON() ([]byte, error) {
	if len(a.Rules) == 0 && len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	out := struct {
		Rules []Rule `json:"rules,omitempty"`
		Value any    `json:"value"`
	}{Rules: a.Rules, Value: a.Values}
	if len(a.Values) == 1 {
		out.Value = a.Values[0]
	}
	return json.Marshal(out)
}

// ClientJar returns the client jar download, if the version has one.
func (v *Version) ClientJar() (Artifact, bool) {
	a, ok := v.Downloads[DownloadClient]
	return a, ok
}

// AssetsID returns the asset index id, falling back to the legacy assets
// field and finally "legacy".
func (v *Version) AssetsID() string {
	switch {
	case v.AssetIndex != nil && v.AssetIndex.ID != "":
		return v.AssetIndex.ID
	case v.Assets != "":
		return v.Assets
	default:
		return "legacy"
	}
}

// JarID returns the id whose client jar this version launches.
func (v *Version) JarID() string {
	if v.Jar != "" {
		return v.Jar
	}
	return v.ID
}

// IsLegacyArguments reports whether the version only carries the
// space-separated minecraftArguments format.
func (v *Version) IsLegacyArguments() bool {
	return v.Arguments == nil && v.MinecraftArguments != ""
}

// Clone returns a deep copy; resolved descriptors are owned by the caller.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	c := *v
	if v.Arguments != nil {
		args := Arguments{
			Game: cloneArguments(v.Arguments.Game),
			JVM:  cloneArguments(v.Arguments.JVM),
		}
		c.Arguments = &args
	}
	c.Libraries = make([]Library, len(v.Libraries))
	for i := range v.Libraries {
		c.Libraries[i] = v.Libraries[i].Clone()
	}
	if v.AssetIndex != nil {
		ai := *v.AssetIndex
		c.AssetIndex = &ai
	}
	if v.JavaVersion != nil {
		jv := *v.JavaVersion
		c.JavaVersion = &jv
	}
	if v.Downloads != nil {
		c.Downloads = make(map[string]Artifact, len(v.Downloads))
		for k, a := range v.Downloads {
			c.Downloads[k] = a
		}
	}
	if v.Logging != nil {
		lg := Logging{}
		if v.Logging.Client != nil {
			lc := *v.Logging.Client
			lg.Client = &lc
		}
		c.Logging = &lg
	}
	return &c
}

func cloneArguments(in []Argument) []Argument {
	if in == nil {
		return nil
	}
	out := make([]Argument, len(in))
	for i, a := range in {
		out[i] = Argument{Rules: cloneRules(a.Rules), Values: slices.Clone(a.Values)}
	}
	return out
}
