// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// ZipEntry is one file in a zip fixture.
type ZipEntry struct {
	Name string
	Body string
	Mode fs.FileMode
}

// ZipBytes builds an in-memory zip archive.
func ZipBytes(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		h := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		mode := e.Mode
		if mode == 0 {
			mode = 0o644
		}
		h.SetMode(mode)
		w, err := zw.CreateHeader(h)
		if err != nil {
			t.Fatalf("zip entry %s: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("zip entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes a zip fixture to path and returns path.
func WriteZip(t testing.TB, path string, entries ...ZipEntry) string {
	t.Helper()
	MustWriteFile(t, filepath.Clean(path), ZipBytes(t, entries...))
	return path
}
