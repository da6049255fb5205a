// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/blocklaunch/blocklaunch/internal/testutil"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

const legacyBuild = "1.12.2-14.23.5.2859"

const legacyProfileJSON = `{
  "install": {
    "path": "net.minecraftforge:forge:1.12.2-14.23.5.2859",
    "filePath": "forge-1.12.2-14.23.5.2859-universal.jar"
  },
  "versionInfo": {
    "id": "1.12.2-forge-14.23.5.2859",
    "inheritsFrom": "1.12.2",
    "mainClass": "net.minecraft.launchwrapper.Launch",
    "minecraftArguments": "--username ${auth_player_name} --tweakClass net.minecraftforge.fml.common.launcher.FMLTweaker",
    "libraries": [
      {"name": "net.minecraftforge:forge:1.12.2-14.23.5.2859", "url": "http://files.minecraftforge.net/maven/"},
      {"name": "org.ow2.asm:asm-all:5.2", "url": "http://files.minecraftforge.net/maven/"},
      {"name": "net.minecraft:launchwrapper:1.12", "clientreq": true},
      {"name": "com.typesafe.akka:akka-actor_2.11:2.3.3", "clientreq": false}
    ]
  }
}`

func legacyInstaller(t *testing.T) []byte {
	t.Helper()
	return testutil.ZipBytes(t,
		testutil.ZipEntry{Name: "install_profile.json", Body: legacyProfileJSON},
		testutil.ZipEntry{Name: "forge-" + legacyBuild + "-universal.jar", Body: "universal"},
	)
}

func legacyWorkspace(t *testing.T, artifact string) *Workspace {
	t.Helper()
	url := "https://maven.test/" + artifact + "/" + legacyBuild + "/" + artifact + "-" + legacyBuild + "-installer.jar"
	return &Workspace{
		Root:       t.TempDir(),
		Stage:      t.TempDir(),
		Platform:   platform.Platform{OS: platform.OSWindows, Arch: platform.ArchX86_64},
		Downloader: &fakeDownloader{files: map[string][]byte{url: legacyInstaller(t)}},
	}
}

func TestForgePlan_LegacyProfile(t *testing.T) {
	t.Parallel()

	ws := legacyWorkspace(t, "forge")
	forge := NewForge(WithBaseURL("https://maven.test"))

	p, err := forge.Plan(context.Background(), ws, &manifest.Version{ID: "1.12.2"}, legacyBuild)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if p.Descriptor.ID != "1.12.2-forge-14.23.5.2859" || p.Descriptor.InheritsFrom != "1.12.2" {
		t.Errorf("descriptor = %s inheriting %s", p.Descriptor.ID, p.Descriptor.InheritsFrom)
	}
	if !p.Descriptor.IsLegacyArguments() {
		t.Error("legacy descriptor lost its minecraftArguments")
	}
	if len(p.Steps) != 0 {
		t.Errorf("Steps = %d, want none", len(p.Steps))
	}

	names := make([]string, 0, len(p.Descriptor.Libraries))
	for _, l := range p.Descriptor.Libraries {
		names = append(names, l.Name)
		if l.Name == "org.ow2.asm:asm-all:5.2" && l.URL != "https://maven.minecraftforge.net/" {
			t.Errorf("asm-all URL = %q, want the live Forge Maven", l.URL)
		}
	}
	if len(names) != 3 {
		t.Errorf("libraries = %v, want the server-only library dropped", names)
	}

	wantURLs := map[string]bool{
		"https://maven.minecraftforge.net/org/ow2/asm/asm-all/5.2/asm-all-5.2.jar":                true,
		"https://libraries.minecraft.net/net/minecraft/launchwrapper/1.12/launchwrapper-1.12.jar": true,
	}
	if len(p.Artifacts) != len(wantURLs) {
		t.Fatalf("Artifacts = %+v, want the universal jar excluded", p.Artifacts)
	}
	for _, a := range p.Artifacts {
		if !wantURLs[a.URL] {
			t.Errorf("unexpected artifact %s", a.URL)
		}
	}

	universal := ws.StagedPath(manifest.MustParseCoordinate("net.minecraftforge:forge:" + legacyBuild).Path())
	if got := string(testutil.MustReadFile(t, universal)); got != "universal" {
		t.Errorf("staged universal jar = %q", got)
	}
}

func TestNeoForgePlan_RejectsLegacyProfile(t *testing.T) {
	t.Parallel()

	ws := legacyWorkspace(t, "forge")
	neo := NewNeoForge(WithBaseURL("https://maven.test"))

	// 1.20.1 builds are published under the forge artifact
	_, err := neo.Plan(context.Background(), ws, &manifest.Version{ID: "1.20.1"}, legacyBuild)
	if !errors.Is(err, ErrInvalidInstaller) {
		t.Errorf("Plan error = %v, want ErrInvalidInstaller", err)
	}
}
