// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"
	"strings"
)

const (
	// VariantFabric is the Fabric loader.
	VariantFabric Variant = "fabric"
	// VariantQuilt is the Quilt loader.
	VariantQuilt Variant = "quilt"
	// VariantForge is Minecraft Forge.
	VariantForge Variant = "forge"
	// VariantNeoForge is NeoForge.
	VariantNeoForge Variant = "neoforge"
)

const (
	// Recommended selects the variant's recommended or newest stable build.
	Recommended = "recommended"
	// Latest selects the newest build, including unstable ones.
	Latest = "latest"
)

type (
	// Variant tags a loader family.
	Variant string

	// Request is a parsed "variant[@version]" loader selection.
	Request struct {
		Variant Variant
		Version string
	}
)

// Variants lists the supported variants in display order.
func Variants() []Variant {
	return []Variant{VariantFabric, VariantQuilt, VariantForge, VariantNeoForge}
}

// ParseVariant validates a variant name, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variants() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// ParseRequest parses "fabric", "forge@47.1.0" or "quilt@latest". A missing
// version means Recommended.
func ParseRequest(s string) (Request, error) {
	name, version, _ := strings.Cut(s, "@")
	v, err := ParseVariant(name)
	if err != nil {
		return Request{}, err
	}
	version = strings.TrimSpace(version)
	if version == "" {
		version = Recommended
	}
	return Request{Variant: v, Version: version}, nil
}

// String returns the variant name.
func (v Variant) String() string { return string(v) }

// String returns "variant@version".
func (r Request) String() string {
	return string(r.Variant) + "@" + r.Version
}
