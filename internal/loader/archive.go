// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/zip"

	"github.com/blocklaunch/blocklaunch/pkg/digest"
	"github.com/blocklaunch/blocklaunch/pkg/fspath"
)

// extractAll unpacks every regular entry of the archive into dir, confining
// entry paths to dir.
func extractAll(archive, dir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrInvalidInstaller, filepath.Base(archive), err)
	}
	defer func() { _ = zr.Close() }() // read-only archive

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dest, err := securejoin.SecureJoin(dir, f.Name)
		if err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
		if err := extractFile(f, dest); err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }() // read-only entry

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// jarMainClass reads Main-Class from a jar manifest.
func jarMainClass(jar string) (string, error) {
	zr, err := zip.OpenReader(jar)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filepath.Base(jar), err)
	}
	defer func() { _ = zr.Close() }() // read-only archive

	f, err := zr.Open("META-INF/MANIFEST.MF")
	if err != nil {
		return "", fmt.Errorf("%s has no manifest: %w", filepath.Base(jar), err)
	}
	defer func() { _ = f.Close() }() // read-only entry

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "Main-Class:"); ok {
			return strings.TrimSpace(v), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%s manifest has no Main-Class", filepath.Base(jar))
}

// stageTree copies every file under src into the staged library directory,
// skipping files whose committed copy already has the same content.
func stageTree(ws *Workspace, src string) (int, error) {
	copied := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if same, err := sameContent(path, ws.CommittedPath(rel)); err != nil {
			return err
		} else if same {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := fspath.WriteFileAtomic(ws.StagedPath(rel), data, 0o644); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("staging %s: %w", src, err)
	}
	return copied, nil
}

// sameContent reports whether both files exist with equal sha1.
func sameContent(a, b string) (bool, error) {
	if !fspath.Exists(b) {
		return false, nil
	}
	da, _, err := digest.ComputeFile(a, digest.SHA1)
	if err != nil {
		return false, err
	}
	return digest.Matches(b, da, 0)
}
