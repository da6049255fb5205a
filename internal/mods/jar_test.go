// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/blocklaunch/blocklaunch/internal/loader"
	"github.com/blocklaunch/blocklaunch/internal/testutil"
)

const sodiumJSON = `{
  "schemaVersion": 1,
  "id": "sodium",
  "version": "0.5.8+mc1.20.4",
  "name": "Sodium",
  "description": "Rendering engine",
  "license": ["LGPL-3.0-only", "Polyform-Shield-1.0.0"],
  "provides": ["embeddium-compat"],
  "jars": [{"file": "META-INF/jars/fabric-api-base.jar"}],
  "depends": {"fabricloader": ">=0.12.0", "minecraft": ["1.20.3", "1.20.4"]},
  "breaks": {"optifabric": "*"},
  "suggests": {"iris": "*"}
}`

const apiBaseJSON = `{"id": "fabric-api-base", "version": "0.4.36+78d798af4f"}`

func writeJar(t *testing.T, dir, name string, entries ...testutil.ZipEntry) string {
	t.Helper()
	return testutil.WriteZip(t, filepath.Join(dir, name), entries...)
}

func byID(mods []Mod) map[string]Mod {
	out := make(map[string]Mod, len(mods))
	for _, m := range mods {
		out[m.ID] = m
	}
	return out
}

func TestReadJar_Fabric(t *testing.T) {
	t.Parallel()

	nested := testutil.ZipBytes(t, testutil.ZipEntry{Name: "fabric.mod.json", Body: apiBaseJSON})
	path := writeJar(t, t.TempDir(), "sodium.jar",
		testutil.ZipEntry{Name: "fabric.mod.json", Body: sodiumJSON},
		testutil.ZipEntry{Name: "META-INF/jars/fabric-api-base.jar", Body: string(nested)},
	)

	mods, err := ReadJar(path, loader.VariantFabric)
	if err != nil {
		t.Fatalf("ReadJar() error = %v", err)
	}
	if len(mods) != 3 {
		t.Fatalf("ReadJar() = %d mods, want sodium, its alias and the nested jar", len(mods))
	}
	got := byID(mods)

	sodium := got["sodium"]
	if sodium.Name != "Sodium" || sodium.Version != "0.5.8+mc1.20.4" || sodium.File != "sodium.jar" {
		t.Errorf("sodium = %+v", sodium)
	}
	if sodium.License != "LGPL-3.0-only, Polyform-Shield-1.0.0" {
		t.Errorf("License = %q", sodium.License)
	}
	if len(sodium.Depends) != 2 || sodium.Depends[1].Range != "1.20.3 || 1.20.4" {
		t.Errorf("Depends = %v", sodium.Depends)
	}
	if len(sodium.Breaks) != 1 || sodium.Breaks[0].Range != "" || len(sodium.Suggests) != 1 {
		t.Errorf("Breaks = %v, Suggests = %v", sodium.Breaks, sodium.Suggests)
	}
	if alias := got["embeddium-compat"]; !alias.Provided || alias.Version != "" {
		t.Errorf("alias = %+v", alias)
	}
	if base := got["fabric-api-base"]; base.File != "sodium.jar" || base.Version != "0.4.36+78d798af4f" {
		t.Errorf("nested mod = %+v, want it reported under the outer jar", base)
	}
}

func TestReadJar_Quilt(t *testing.T) {
	t.Parallel()

	path := writeJar(t, t.TempDir(), "qsl.jar",
		testutil.ZipEntry{Name: "quilt.mod.json", Body: `{
  "schema_version": 1,
  "quilt_loader": {
    "group": "org.quiltmc",
    "id": "qsl",
    "version": "7.0.0",
    "provides": [{"id": "quilted_fabric_api", "version": "7.0.0"}, "qsl_base"],
    "depends": [
      "minecraft",
      {"id": "quilt_loader", "versions": ">=0.19.0"},
      {"id": "modmenu", "optional": true, "reason": "config screens"},
      {"id": "sodium", "versions": [">=0.5"], "unless": "embeddium"}
    ],
    "breaks": {"id": "optifabric", "optional": true},
    "metadata": {"name": "Quilt Standard Libraries", "license": {"name": "Apache 2.0", "id": "Apache-2.0"}}
  }
}`},
		testutil.ZipEntry{Name: "fabric.mod.json", Body: `{"id": "ignored", "version": "1"}`},
	)

	mods, err := ReadJar(path, loader.VariantQuilt)
	if err != nil {
		t.Fatalf("ReadJar() error = %v", err)
	}
	got := byID(mods)
	if _, ok := got["ignored"]; ok {
		t.Error("fabric.mod.json read although quilt.mod.json exists")
	}

	qsl := got["qsl"]
	if qsl.Name != "Quilt Standard Libraries" || qsl.License != "Apache 2.0" {
		t.Errorf("qsl = %+v", qsl)
	}
	if len(qsl.Depends) != 3 || len(qsl.Recommends) != 1 || qsl.Recommends[0].Reason != "config screens" {
		t.Errorf("Depends = %v, Recommends = %v", qsl.Depends, qsl.Recommends)
	}
	if dep := qsl.Depends[2]; dep.ID != "sodium" || len(dep.Unless) != 1 || dep.Unless[0].ID != "embeddium" {
		t.Errorf("sodium dependency = %+v", dep)
	}
	if len(qsl.Conflicts) != 1 || len(qsl.Breaks) != 0 {
		t.Errorf("optional break should be a conflict: Conflicts = %v, Breaks = %v", qsl.Conflicts, qsl.Breaks)
	}
	if alias := got["quilted_fabric_api"]; !alias.Provided || alias.Version != "7.0.0" {
		t.Errorf("object alias = %+v", alias)
	}
	if _, ok := got["qsl_base"]; !ok {
		t.Error("string alias missing")
	}
}

func TestReadJar_ModsTOML(t *testing.T) {
	t.Parallel()

	nested := testutil.ZipBytes(t, testutil.ZipEntry{Name: "META-INF/neoforge.mods.toml", Body: `
license = "MIT"
[[mods]]
modId = "cloth_config"
version = "13.0.121"
`})
	path := writeJar(t, t.TempDir(), "jei.jar",
		testutil.ZipEntry{Name: "META-INF/MANIFEST.MF", Body: "Manifest-Version: 1.0\nImplementation-Version: 17.3.0.49\n"},
		testutil.ZipEntry{Name: "META-INF/neoforge.mods.toml", Body: `
modLoader = "javafml"
loaderVersion = "[1,)"
license = "MIT"

[[mods]]
modId = "jei"
version = "${file.jarVersion}"
displayName = "Just Enough Items"
description = '''
Item and recipe viewing mod.
'''

[[dependencies.jei]]
modId = "neoforge"
type = "required"
versionRange = "[20.4.80,)"
side = "BOTH"

[[dependencies.jei]]
modId = "minecraft"
type = "required"
versionRange = "[1.20.4,1.20.5)"
side = "BOTH"

[[dependencies.jei]]
modId = "roughlyenoughitems"
type = "incompatible"
versionRange = "*"
side = "BOTH"

[[dependencies.jei]]
modId = "rei_plugin"
type = "discouraged"
side = "CLIENT"

[[dependencies.jei]]
modId = "serverutils"
type = "required"
side = "SERVER"
`},
		testutil.ZipEntry{Name: "META-INF/jarjar/metadata.json", Body: `{"jars": [{"identifier": {"group": "me.shedaniel", "artifact": "cloth-config"}, "path": "META-INF/jarjar/cloth-config.jar"}]}`},
		testutil.ZipEntry{Name: "META-INF/jarjar/cloth-config.jar", Body: string(nested)},
	)

	mods, err := ReadJar(path, loader.VariantNeoForge)
	if err != nil {
		t.Fatalf("ReadJar() error = %v", err)
	}
	got := byID(mods)

	jei := got["jei"]
	if jei.Version != "17.3.0.49" || jei.Name != "Just Enough Items" || jei.Description != "Item and recipe viewing mod." {
		t.Errorf("jei = %+v", jei)
	}
	if len(jei.Depends) != 2 || jei.Depends[0].Range != ">=20.4.80" || jei.Depends[1].Range != ">=1.20.4, <1.20.5" {
		t.Errorf("Depends = %v, want the server-only dependency skipped", jei.Depends)
	}
	if len(jei.Breaks) != 1 || len(jei.Conflicts) != 1 {
		t.Errorf("Breaks = %v, Conflicts = %v", jei.Breaks, jei.Conflicts)
	}
	if got["cloth_config"].Version != "13.0.121" {
		t.Errorf("jar-in-jar mod = %+v", got["cloth_config"])
	}
}

func TestReadJar_McmodInfo(t *testing.T) {
	t.Parallel()

	path := writeJar(t, t.TempDir(), "ic2.jar",
		testutil.ZipEntry{Name: "mcmod.info", Body: `[{
  "modid": "ic2",
  "name": "IndustrialCraft 2",
  "version": "2.8.221",
  "mcversion": "1.12.2",
  "useDependencyInformation": true,
  "requiredMods": ["Forge@[14.23.5.2768,)", "jei"]
}, {
  "modid": "ic2_addon",
  "version": "${version}",
  "mcversion": "${mcversion}",
  "requiredMods": ["ignored"]
}]`},
	)

	mods, err := ReadJar(path, loader.VariantForge)
	if err != nil {
		t.Fatalf("ReadJar() error = %v", err)
	}
	got := byID(mods)

	ic2 := got["ic2"]
	if len(ic2.Depends) != 3 {
		t.Fatalf("Depends = %v", ic2.Depends)
	}
	if d := ic2.Depends[0]; d.ID != "Forge" || d.Range != ">=14.23.5.2768" {
		t.Errorf("Forge dependency = %+v", d)
	}
	if d := ic2.Depends[2]; d.ID != "minecraft" || d.Range != "=1.12.2" {
		t.Errorf("game dependency = %+v", d)
	}
	if addon := got["ic2_addon"]; addon.Version != "" || len(addon.Depends) != 0 {
		t.Errorf("addon = %+v, want placeholders treated as unknown", addon)
	}
}

func TestReadJar_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plain := writeJar(t, dir, "library.jar", testutil.ZipEntry{Name: "com/example/A.class", Body: "cafebabe"})
	if _, err := ReadJar(plain, loader.VariantFabric); !errors.Is(err, ErrNoMetadata) {
		t.Errorf("jar without metadata: error = %v, want ErrNoMetadata", err)
	}

	forgeMod := writeJar(t, dir, "forge.jar", testutil.ZipEntry{Name: "META-INF/mods.toml", Body: "license = \"MIT\"\n[[mods]]\nmodId = \"x\"\n"})
	if _, err := ReadJar(forgeMod, loader.VariantFabric); !errors.Is(err, ErrNoMetadata) {
		t.Errorf("forge mod under fabric: error = %v, want ErrNoMetadata", err)
	}

	broken := writeJar(t, dir, "broken.jar", testutil.ZipEntry{Name: "fabric.mod.json", Body: `{"version": "1"}`})
	if _, err := ReadJar(broken, loader.VariantFabric); err == nil || errors.Is(err, ErrNoMetadata) {
		t.Errorf("metadata without id: error = %v", err)
	}

	notZip := filepath.Join(dir, "notzip.jar")
	testutil.MustWriteFile(t, notZip, []byte("plain text"))
	if _, err := ReadJar(notZip, loader.VariantFabric); err == nil {
		t.Error("ReadJar() on a non-zip file succeeded")
	}
}
