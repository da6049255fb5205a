// SPDX-License-Identifier: MPL-2.0

package mojang

import (
	"encoding/json"
	"fmt"
	"time"
)

type (
	// VersionList is the remote version manifest.
	VersionList struct {
		Latest   Latest         `json:"latest"`
		Versions []VersionEntry `json:"versions"`
	}

	// Latest names the newest release and snapshot.
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	}

	// VersionEntry is one row of the version list.
	VersionEntry struct {
		ID              string    `json:"id"`
		Type            string    `json:"type"`
		URL             string    `json:"url"`
		Time            time.Time `json:"time"`
		ReleaseTime     time.Time `json:"releaseTime"`
		SHA1            string    `json:"sha1"`
		ComplianceLevel int       `json:"complianceLevel"`
	}
)

// Find returns the entry for id.
func (l *VersionList) Find(id string) (VersionEntry, bool) {
	for _, v := range l.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return VersionEntry{}, false
}

// Filter returns the entries whose type is in types, in list order. No types
// means every entry.
func (l *VersionList) Filter(types ...string) []VersionEntry {
	if len(types) == 0 {
		return append([]VersionEntry(nil), l.Versions...)
	}
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []VersionEntry
	for _, v := range l.Versions {
		if want[v.Type] {
			out = append(out, v)
		}
	}
	return out
}

// Alias maps "release" and "snapshot" to the latest ids and returns anything
// else unchanged.
func (l *VersionList) Alias(id string) string {
	switch id {
	case "release", "latest":
		return l.Latest.Release
	case "snapshot":
		return l.Latest.Snapshot
	default:
		return id
	}
}

func decodeVersionList(data []byte) (*VersionList, error) {
	var l VersionList
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decoding version list: %w", err)
	}
	return &l, nil
}
