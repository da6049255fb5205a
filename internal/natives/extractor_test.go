// SPDX-License-Identifier: MPL-2.0

package natives

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/blocklaunch/blocklaunch/internal/testutil"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

var linux64 = platform.Platform{OS: platform.OSLinux, Arch: platform.ArchX86_64}

func nativeLib(name, classifier string) manifest.Library {
	c := manifest.MustParseCoordinate(name).WithClassifier(classifier)
	return manifest.Library{
		Name:    name,
		Natives: map[string]string{platform.OSLinux: classifier},
		Downloads: &manifest.LibraryDownloads{Classifiers: map[string]manifest.Artifact{
			classifier: {Path: c.Path(), URL: "https://example.invalid/" + c.Path()},
		}},
		Extract: &manifest.ExtractRules{Exclude: []string{"META-INF/"}},
	}
}

func archivePath(libDir string, lib manifest.Library) string {
	a, _ := lib.NativeArtifact(linux64)
	return filepath.Join(libDir, filepath.FromSlash(a.Path))
}

func TestExtract_WritesAndSkips(t *testing.T) {
	t.Parallel()

	libDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "natives")
	lib := nativeLib("org.lwjgl.lwjgl:lwjgl-platform:2.9.4", "natives-linux")
	testutil.WriteZip(t, archivePath(libDir, lib),
		testutil.ZipEntry{Name: "liblwjgl64.so", Body: "elf", Mode: 0o755},
		testutil.ZipEntry{Name: "sub/libopenal64.so", Body: "openal"},
		testutil.ZipEntry{Name: "META-INF/MANIFEST.MF", Body: "Manifest-Version: 1.0"},
	)

	n, err := New(libDir).Extract(context.Background(), []manifest.Library{lib}, target, linux64)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if n != 2 {
		t.Errorf("extracted %d files, want 2", n)
	}
	if got := string(testutil.MustReadFile(t, filepath.Join(target, "sub", "libopenal64.so"))); got != "openal" {
		t.Errorf("nested entry = %q", got)
	}
	if _, err := os.Stat(filepath.Join(target, "META-INF")); !errors.Is(err, os.ErrNotExist) {
		t.Error("excluded META-INF/ was extracted")
	}

	n, err = New(libDir).Extract(context.Background(), []manifest.Library{lib}, target, linux64)
	if err != nil || n != 0 {
		t.Errorf("second Extract() = %d, %v; want 0, nil", n, err)
	}
}

func TestExtract_SkipsOtherPlatformsAndRules(t *testing.T) {
	t.Parallel()

	libDir := t.TempDir()
	target := t.TempDir()

	winOnly := nativeLib("a:win:1", "natives-windows")
	winOnly.Natives = map[string]string{platform.OSWindows: "natives-windows"}

	disallowed := nativeLib("a:osx-only:1", "natives-linux")
	disallowed.Rules = []manifest.Rule{{Action: manifest.ActionAllow, OS: &manifest.OSRule{Name: platform.OSX}}}

	n, err := New(libDir).Extract(context.Background(), []manifest.Library{winOnly, disallowed, {Name: "a:plain:1"}}, target, linux64)
	if err != nil || n != 0 {
		t.Fatalf("Extract() = %d, %v; want 0, nil", n, err)
	}
}

func TestExtract_CorruptArchiveIsolated(t *testing.T) {
	t.Parallel()

	libDir := t.TempDir()
	target := t.TempDir()

	good := nativeLib("a:good:1", "natives-linux")
	testutil.WriteZip(t, archivePath(libDir, good), testutil.ZipEntry{Name: "good.so", Body: "ok"})

	bad := nativeLib("a:bad:1", "natives-linux")
	testutil.MustWriteFile(t, archivePath(libDir, bad), []byte("this is not a zip"))

	n, err := New(libDir).Extract(context.Background(), []manifest.Library{bad, good}, target, linux64)
	if n != 1 {
		t.Errorf("extracted %d files, want 1 from the good archive", n)
	}
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("Extract() error = %v, want ErrCorruptArchive", err)
	}
	var ae *ArchiveError
	if !errors.As(err, &ae) || ae.Library != "a:bad:1" {
		t.Errorf("ArchiveError = %+v", ae)
	}
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	t.Parallel()

	libDir := t.TempDir()
	base := t.TempDir()
	target := filepath.Join(base, "natives")

	lib := nativeLib("a:evil:1", "natives-linux")
	testutil.WriteZip(t, archivePath(libDir, lib), testutil.ZipEntry{Name: "../../escape.so", Body: "x"})

	// the archive may be rejected outright or the entry confined; either
	// way nothing lands outside target
	_, _ = New(libDir).Extract(context.Background(), []manifest.Library{lib}, target, linux64)
	if _, err := os.Stat(filepath.Join(base, "escape.so")); err == nil {
		t.Fatal("entry escaped the natives directory")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(base), "escape.so")); err == nil {
		t.Fatal("entry escaped the natives directory")
	}
}

func TestExtract_SkipsReservedNamesOnWindows(t *testing.T) {
	t.Parallel()

	win64 := platform.Platform{OS: platform.OSWindows, Arch: platform.ArchX86_64}
	libDir := t.TempDir()
	target := t.TempDir()

	lib := nativeLib("a:win:1", "natives-windows")
	lib.Natives = map[string]string{platform.OSWindows: "natives-windows"}
	a, ok := lib.NativeArtifact(win64)
	if !ok {
		t.Fatal("no windows artifact")
	}
	testutil.WriteZip(t, filepath.Join(libDir, filepath.FromSlash(a.Path)),
		testutil.ZipEntry{Name: "lwjgl64.dll", Body: "pe"},
		testutil.ZipEntry{Name: "aux.dll", Body: "pe"},
	)

	n, err := New(libDir).Extract(context.Background(), []manifest.Library{lib}, target, win64)
	if err != nil || n != 1 {
		t.Fatalf("Extract() = %d, %v; want 1, nil", n, err)
	}
	if _, err := os.Stat(filepath.Join(target, "aux.dll")); !errors.Is(err, os.ErrNotExist) {
		t.Error("reserved name was extracted")
	}
}

func TestEntryFilter(t *testing.T) {
	t.Parallel()

	f, err := newEntryFilter(&manifest.ExtractRules{
		Include: []string{"*.so", "lib/**"},
		Exclude: []string{"META-INF/", "lib/debug/*"},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]bool{
		"liba.so":             true,
		"lib/x/liby.dylib":    true,
		"lib/debug/libz.so":   false,
		"META-INF/INDEX.LIST": false,
		"readme.txt":          false,
	}
	for name, want := range tests {
		if got := f.allows(name); got != want {
			t.Errorf("allows(%q) = %v, want %v", name, got, want)
		}
	}
}
