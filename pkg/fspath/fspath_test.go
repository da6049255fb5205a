// SPDX-License-Identifier: MPL-2.0

package fspath

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "versions", "1.20", "1.20.json")

	if err := WriteFileAtomic(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() second error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("content = %q, want %q", got, "two")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the target", len(entries))
	}
}

func TestEnsureCacheDirTag(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "libraries")
	if err := EnsureCacheDirTag(dir); err != nil {
		t.Fatalf("EnsureCacheDirTag() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, CacheDirTagName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), cacheDirTagSignature) {
		t.Errorf("tag content = %q", data)
	}

	// a user-edited tag is left alone
	if err := os.WriteFile(filepath.Join(dir, CacheDirTagName), []byte(cacheDirTagSignature+"\ncustom\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureCacheDirTag(dir); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, CacheDirTagName))
	if !strings.Contains(string(data), "custom") {
		t.Error("existing tag was overwritten")
	}
}

func TestMoveFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "staging", "a.jar")
	dst := filepath.Join(dir, "libraries", "x", "a.jar")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("jar"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}
	if Exists(src) {
		t.Error("source still exists")
	}
	if !Exists(dst) {
		t.Error("destination missing")
	}
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "objects", "ab", "abcd")
	dst := filepath.Join(dir, "virtual", "legacy", "sounds", "step.ogg")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("ogg"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "ogg" {
		t.Errorf("copied content = %q, %v", data, err)
	}
	if !Exists(src) {
		t.Error("source removed by copy")
	}

	if err := CopyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("CopyFile(missing) succeeded")
	}
}
