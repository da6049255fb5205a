// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"path"
	"path/filepath"
	"strconv"

	"github.com/blocklaunch/blocklaunch/internal/loader"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

// loaderJars are the loader libraries whose own metadata describes the
// builtins of fabric-like loaders, by Maven group path and artifact.
var loaderJars = map[loader.Variant][2]string{
	loader.VariantFabric: {"net/fabricmc", "fabric-loader"},
	loader.VariantQuilt:  {"org/quiltmc", "quilt-loader"},
}

// Builtins lists the mods every mod of desc can rely on: the game, the
// Java runtime the descriptor asks for and the loader req. Fabric and
// Quilt describe themselves in their loader jar under libraryDir; its
// metadata is used when the jar is installed.
func Builtins(desc *manifest.Version, req loader.Request, libraryDir string) []Mod {
	mods := []Mod{{ID: "minecraft", Name: "Minecraft", Version: desc.JarID()}}
	if desc.JavaVersion != nil && desc.JavaVersion.MajorVersion > 0 {
		mods = append(mods, Mod{ID: "java", Name: "Java", Version: strconv.Itoa(desc.JavaVersion.MajorVersion)})
	}

	if coord, ok := loaderJars[req.Variant]; ok {
		rel := path.Join(coord[0], coord[1], req.Version, coord[1]+"-"+req.Version+".jar")
		if own, err := ReadJar(filepath.Join(libraryDir, filepath.FromSlash(rel)), req.Variant); err == nil {
			for i := range own {
				own[i].File = ""
			}
			return append(mods, own...)
		}
	}

	switch req.Variant {
	case loader.VariantFabric:
		mods = append(mods, Mod{ID: "fabricloader", Name: "Fabric Loader", Version: req.Version})
	case loader.VariantQuilt:
		mods = append(mods,
			Mod{ID: "quilt_loader", Name: "Quilt Loader", Version: req.Version},
			Mod{ID: "fabricloader", Name: "Quilt Loader", Provided: true},
		)
	case loader.VariantForge:
		mods = append(mods,
			Mod{ID: "forge", Name: "Forge", Version: req.Version},
			// mcmod.info files name it with a capital letter
			Mod{ID: "Forge", Name: "Forge", Version: req.Version, Provided: true},
		)
	case loader.VariantNeoForge:
		mods = append(mods, Mod{ID: "neoforge", Name: "NeoForge", Version: req.Version})
	}
	return mods
}
