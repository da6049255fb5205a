// SPDX-License-Identifier: MPL-2.0

package natives

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/zip"

	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

type (
	// Extractor unpacks native archives from a library directory.
	Extractor struct {
		libraryDir string
		logger     *log.Logger
	}

	// Option configures an Extractor during construction.
	Option func(*Extractor)
)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New creates an Extractor reading archives below libraryDir.
func New(libraryDir string, opts ...Option) *Extractor {
	e := &Extractor{libraryDir: libraryDir, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract unpacks the natives of every applicable library into targetDir and
// returns the number of files written. A failing library does not stop the
// others; their errors are aggregated into a *multierror.Error whose entries
// are *ArchiveError values.
func (e *Extractor) Extract(ctx context.Context, libs []manifest.Library, targetDir string, p platform.Platform) (int, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating natives directory: %w", err)
	}

	env := manifest.Environment{Platform: p}
	var (
		total int
		errs  *multierror.Error
	)
	for i := range libs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		lib := &libs[i]
		if !lib.Applies(env) {
			continue
		}
		art, ok := lib.NativeArtifact(p)
		if !ok {
			continue
		}

		archive := filepath.Join(e.libraryDir, filepath.FromSlash(art.Path))
		n, err := e.extractArchive(ctx, lib, archive, targetDir, p.OS == platform.OSWindows)
		total += n
		if err != nil {
			e.logger.Warn("native archive skipped", "library", lib.Name, "error", err)
			errs = multierror.Append(errs, &ArchiveError{Library: lib.Name, Path: archive, Err: err})
		}
	}
	return total, errs.ErrorOrNil()
}

func (e *Extractor) extractArchive(ctx context.Context, lib *manifest.Library, archive, targetDir string, windows bool) (int, error) {
	filter, err := newEntryFilter(lib.Extract)
	if err != nil {
		return 0, err
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		return 0, err
	}
	defer func() { _ = zr.Close() }() // read-only archive

	written := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		name := strings.TrimPrefix(f.Name, "/")
		if name == "" || f.FileInfo().IsDir() || !filter.allows(name) {
			continue
		}
		if windows && platform.HasWindowsReservedName(name) {
			e.logger.Warn("skipping native entry with a reserved Windows name", "library", lib.Name, "entry", f.Name)
			continue
		}

		dest, err := securejoin.SecureJoin(targetDir, name)
		if err != nil {
			return written, fmt.Errorf("entry %s: %w", f.Name, err)
		}
		if upToDate(dest, int64(f.UncompressedSize64)) {
			continue
		}
		if err := writeEntry(f, dest); err != nil {
			return written, fmt.Errorf("entry %s: %w", f.Name, err)
		}
		written++
	}
	return written, nil
}

// upToDate reports whether dest already holds a file of the entry's size.
func upToDate(dest string, size int64) bool {
	info, err := os.Stat(dest)
	return err == nil && info.Mode().IsRegular() && info.Size() == size
}

func writeEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }() // read-only entry

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return err
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name()) // best-effort cleanup
		}
	}()

	n, copyErr := io.Copy(tmp, rc)
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return copyErr
	}
	if n != int64(f.UncompressedSize64) {
		return fmt.Errorf("short entry: %d of %d bytes: %w", n, f.UncompressedSize64, io.ErrUnexpectedEOF)
	}
	if err := os.Chmod(tmp.Name(), entryMode(f.Mode())); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return err
	}
	renamed = true
	return nil
}

// entryMode keeps the executable bits of an entry and nothing else.
func entryMode(m fs.FileMode) fs.FileMode {
	if m&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

// IsCorrupt reports whether err contains an *ArchiveError.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptArchive)
}
