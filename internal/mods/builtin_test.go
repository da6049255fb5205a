// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"path/filepath"
	"testing"

	"github.com/blocklaunch/blocklaunch/internal/loader"
	"github.com/blocklaunch/blocklaunch/internal/testutil"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

func TestBuiltins(t *testing.T) {
	t.Parallel()

	desc := &manifest.Version{
		ID:          "fabric-loader-0.15.7-1.20.4",
		Jar:         "1.20.4",
		JavaVersion: &manifest.JavaVersion{MajorVersion: 17},
	}

	tests := []struct {
		name string
		req  loader.Request
		want []string
	}{
		{name: "vanilla", want: []string{"minecraft@1.20.4", "java@17"}},
		{
			name: "fabric",
			req:  loader.Request{Variant: loader.VariantFabric, Version: "0.15.7"},
			want: []string{"minecraft@1.20.4", "java@17", "fabricloader@0.15.7"},
		},
		{
			name: "quilt",
			req:  loader.Request{Variant: loader.VariantQuilt, Version: "0.23.1"},
			want: []string{"minecraft@1.20.4", "java@17", "quilt_loader@0.23.1", "fabricloader@"},
		},
		{
			name: "forge",
			req:  loader.Request{Variant: loader.VariantForge, Version: "49.0.30"},
			want: []string{"minecraft@1.20.4", "java@17", "forge@49.0.30", "Forge@49.0.30"},
		},
		{
			name: "neoforge",
			req:  loader.Request{Variant: loader.VariantNeoForge, Version: "20.4.190"},
			want: []string{"minecraft@1.20.4", "java@17", "neoforge@20.4.190"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Builtins(desc, tt.req, t.TempDir())
			if len(got) != len(tt.want) {
				t.Fatalf("Builtins() = %+v, want %v", got, tt.want)
			}
			for i, m := range got {
				if id := m.ID + "@" + m.Version; id != tt.want[i] || m.File != "" {
					t.Errorf("Builtins()[%d] = %s in %q, want %s", i, id, m.File, tt.want[i])
				}
			}
		})
	}
}

func TestBuiltins_ReadsInstalledLoader(t *testing.T) {
	t.Parallel()

	libs := t.TempDir()
	testutil.WriteZip(t, filepath.Join(libs, "net", "fabricmc", "fabric-loader", "0.15.7", "fabric-loader-0.15.7.jar"),
		testutil.ZipEntry{Name: "fabric.mod.json", Body: `{
  "id": "fabricloader",
  "name": "Fabric Loader",
  "version": "0.15.7",
  "provides": ["fabric-loader"],
  "depends": {"java": ">=8"}
}`})

	desc := &manifest.Version{ID: "1.20.4"}
	got := Builtins(desc, loader.Request{Variant: loader.VariantFabric, Version: "0.15.7"}, libs)
	if len(got) != 3 {
		t.Fatalf("Builtins() = %+v, want the game, the loader and its alias", got)
	}
	if got[1].ID != "fabricloader" || len(got[1].Depends) != 1 || got[1].File != "" {
		t.Errorf("loader = %+v, want the jar's own metadata", got[1])
	}
	if !got[2].Provided || got[2].ID != "fabric-loader" {
		t.Errorf("alias = %+v", got[2])
	}
}
