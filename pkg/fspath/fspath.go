// SPDX-License-Identifier: MPL-2.0

// Package fspath holds the filesystem helpers shared by the installers:
// atomic file replacement, moves and copies, and cache directory tagging.
package fspath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// cacheDirTagSignature is the fixed header defined by the Cache Directory
// Tagging Specification.
const cacheDirTagSignature = "Signature: 8a477f597d28d172789f06886806bc55"

// CacheDirTagName is the file name backup tools look for.
const CacheDirTagName = "CACHEDIR.TAG"

// WriteFileAtomic writes data to a temp sibling of path and renames it into
// place, so readers observe either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath) // best-effort cleanup
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	committed = true
	return nil
}

// EnsureCacheDirTag creates dir and writes a CACHEDIR.TAG into it unless one
// already exists.
func EnsureCacheDirTag(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tag := filepath.Join(dir, CacheDirTagName)
	if _, err := os.Stat(tag); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", tag, err)
	}
	content := cacheDirTagSignature + "\n" +
		"# This file is a cache directory tag created by blocklaunch.\n" +
		"# For information about cache directory tags see https://bford.info/cachedir/\n"
	return WriteFileAtomic(tag, []byte(content), 0o644)
}

// Exists reports whether path exists. Errors other than not-exist count as
// existing so callers do not overwrite what they cannot inspect.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// MoveFile renames src to dst, creating dst's parent, and falls back to
// copy-and-remove when the rename crosses filesystems.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing %s: %w", src, err)
	}
	return nil
}

// CopyFile replaces dst with the content of src.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	return WriteFileAtomic(dst, data, 0o644)
}
