// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

const (
	fabricLoadersJSON = `[
  {"loader": {"version": "0.15.0", "maven": "net.fabricmc:fabric-loader:0.15.0", "stable": false}},
  {"loader": {"version": "0.14.22", "maven": "net.fabricmc:fabric-loader:0.14.22", "stable": true}},
  {"loader": {"version": "0.14.21", "maven": "net.fabricmc:fabric-loader:0.14.21", "stable": true}}
]`

	quiltLoadersJSON = `[
  {"loader": {"version": "0.20.0-beta.9", "maven": "org.quiltmc:quilt-loader:0.20.0-beta.9"}},
  {"loader": {"version": "0.19.2", "maven": "org.quiltmc:quilt-loader:0.19.2"}}
]`

	fabricProfileJSON = `{
  "id": "fabric-loader-0.14.22-1.20.1",
  "inheritsFrom": "1.20.1",
  "type": "release",
  "mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient",
  "arguments": {"game": [], "jvm": ["-DFabricMcEmu= net.minecraft.client.main.Main "]},
  "libraries": [
    {"name": "net.fabricmc:sponge-mixin:0.12.5+mixin.0.8.5", "url": "https://maven.fabricmc.net/"},
    {"name": "net.fabricmc:fabric-loader:0.14.22", "url": "https://maven.fabricmc.net"}
  ]
}`
)

func newFabricServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/fabric/versions/loader/1.20.1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(fabricLoadersJSON))
	})
	mux.HandleFunc("/fabric/versions/loader/1.20.1/0.14.22/profile/json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(fabricProfileJSON))
	})
	mux.HandleFunc("/quilt/versions/loader/1.20.1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(quiltLoadersJSON))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFabricResolveVersion(t *testing.T) {
	t.Parallel()

	srv := newFabricServer(t)
	fabric := NewFabric(WithBaseURL(srv.URL + "/fabric"))
	quilt := NewQuilt(WithBaseURL(srv.URL + "/quilt/"))

	tests := []struct {
		name      string
		provider  Provider
		requested string
		want      string
	}{
		{"fabric recommended is newest stable", fabric, Recommended, "0.14.22"},
		{"fabric latest", fabric, Latest, "0.15.0"},
		{"fabric exact", fabric, "0.14.21", "0.14.21"},
		{"quilt recommended skips prereleases", quilt, Recommended, "0.19.2"},
		{"quilt latest", quilt, Latest, "0.20.0-beta.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.provider.ResolveVersion(context.Background(), "1.20.1", tt.requested)
			if err != nil {
				t.Fatalf("ResolveVersion: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveVersion = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFabricResolveVersion_Unsupported(t *testing.T) {
	t.Parallel()

	srv := newFabricServer(t)
	fabric := NewFabric(WithBaseURL(srv.URL + "/fabric"))

	for _, tc := range []struct{ game, requested string }{
		{"1.13", Recommended}, // 404 from the API
		{"1.20.1", "0.1.0"},
	} {
		_, err := fabric.ResolveVersion(context.Background(), tc.game, tc.requested)
		if !errors.Is(err, ErrUnsupportedVersionCombination) {
			t.Errorf("ResolveVersion(%s, %s) error = %v, want ErrUnsupportedVersionCombination", tc.game, tc.requested, err)
		}
	}
}

func TestFabricPlan(t *testing.T) {
	t.Parallel()

	srv := newFabricServer(t)
	fabric := NewFabric(WithBaseURL(srv.URL + "/fabric"))
	ws := &Workspace{Root: t.TempDir(), Stage: t.TempDir(), Platform: platform.Platform{OS: platform.OSLinux, Arch: platform.ArchX86_64}}
	base := &manifest.Version{ID: "1.20.1"}

	p, err := fabric.Plan(context.Background(), ws, base, "0.14.22")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.Descriptor.ID != "fabric-loader-0.14.22-1.20.1" || p.Descriptor.InheritsFrom != "1.20.1" {
		t.Errorf("descriptor = %s inheriting %s", p.Descriptor.ID, p.Descriptor.InheritsFrom)
	}
	if len(p.Steps) != 0 {
		t.Errorf("Steps = %d, want none", len(p.Steps))
	}
	wantURLs := []string{
		"https://maven.fabricmc.net/net/fabricmc/sponge-mixin/0.12.5+mixin.0.8.5/sponge-mixin-0.12.5+mixin.0.8.5.jar",
		"https://maven.fabricmc.net/net/fabricmc/fabric-loader/0.14.22/fabric-loader-0.14.22.jar",
	}
	if len(p.Artifacts) != len(wantURLs) {
		t.Fatalf("Artifacts = %+v", p.Artifacts)
	}
	for i, want := range wantURLs {
		if p.Artifacts[i].URL != want {
			t.Errorf("Artifacts[%d].URL = %q, want %q", i, p.Artifacts[i].URL, want)
		}
	}
}
