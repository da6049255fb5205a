// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"path"
)

// DefaultAssetBase serves asset objects by hash.
const DefaultAssetBase = "https://resources.download.minecraft.net/"

type (
	// AssetIndex maps logical asset paths to content-addressed objects.
	AssetIndex struct {
		Objects map[string]AssetObject `json:"objects"`
		// Virtual indexes are also materialized under assets/virtual/<id>.
		Virtual bool `json:"virtual,omitempty"`
		// MapToResources indexes are copied into <game_dir>/resources.
		MapToResources bool `json:"map_to_resources,omitempty"`
	}

	// AssetObject is one asset file.
	AssetObject struct {
		Hash string `json:"hash"`
		Size int64  `json:"size"`
	}
)

// ObjectPath returns the objects/ relative path: <first two hex>/<hash>.
func (o AssetObject) ObjectPath() string {
	if len(o.Hash) < 2 {
		return o.Hash
	}
	return path.Join(o.Hash[:2], o.Hash)
}

// URL returns the download URL under base.
func (o AssetObject) URL(base string) string {
	if base == "" {
		base = DefaultAssetBase
	}
	return base + o.ObjectPath()
}

// DecodeAssetIndex parses an asset index document.
func DecodeAssetIndex(data []byte) (*AssetIndex, error) {
	var idx AssetIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decoding asset index: %w", err)
	}
	return &idx, nil
}
