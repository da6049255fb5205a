// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"strings"

	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

// Detect reports the loader a merged descriptor launches with, reading the
// FML version arguments first and the loader libraries second. The version
// of the returned Request is the concrete build.
func Detect(desc *manifest.Version) (Request, bool) {
	if desc.Arguments != nil {
		if v := argumentAfter(desc.Arguments.Game, "--fml.neoForgeVersion"); v != "" {
			return Request{Variant: VariantNeoForge, Version: v}, true
		}
		if v := argumentAfter(desc.Arguments.Game, "--fml.forgeVersion"); v != "" {
			return Request{Variant: VariantForge, Version: v}, true
		}
	}

	for i := range desc.Libraries {
		c, err := desc.Libraries[i].Coordinate()
		if err != nil {
			continue
		}
		switch c.Group + ":" + c.Artifact {
		case "net.fabricmc:fabric-loader":
			return Request{Variant: VariantFabric, Version: c.Version}, true
		case "org.quiltmc:quilt-loader":
			return Request{Variant: VariantQuilt, Version: c.Version}, true
		case "net.neoforged:neoforge":
			return Request{Variant: VariantNeoForge, Version: c.Version}, true
		case "net.neoforged:forge":
			// the 1.20.1 builds kept Forge's <game>-<build> scheme
			return Request{Variant: VariantNeoForge, Version: forgeBuild(c.Version)}, true
		case "net.minecraftforge:forge", "net.minecraftforge:minecraftforge":
			return Request{Variant: VariantForge, Version: forgeBuild(c.Version)}, true
		}
	}
	return Request{}, false
}

// argumentAfter returns the value following flag in args.
func argumentAfter(args []manifest.Argument, flag string) string {
	var values []string
	for _, a := range args {
		values = append(values, a.Values...)
	}
	for i, v := range values {
		if v == flag && i+1 < len(values) {
			return values[i+1]
		}
	}
	return ""
}

// forgeBuild strips the game version from "1.12.2-14.23.5.2860" and
// "1.7.10-10.13.4.1614-1.7.10".
func forgeBuild(v string) string {
	parts := strings.Split(v, "-")
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "1.") {
		return v
	}
	if len(parts) > 2 && parts[len(parts)-1] == parts[0] {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts[1:], "-")
}
