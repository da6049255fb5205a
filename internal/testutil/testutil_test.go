// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
)

func TestZipBytes(t *testing.T) {
	t.Parallel()

	data := ZipBytes(t, ZipEntry{Name: "a.so", Body: "native"}, ZipEntry{Name: "META-INF/MANIFEST.MF", Body: "m"})
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entries = %d, want 2", len(zr.File))
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != "native" {
		t.Errorf("body = %q", body)
	}
}

func TestFakeClock(t *testing.T) {
	t.Parallel()

	c := NewFakeClock(time.Time{})
	start := c.Now()
	c.Advance(time.Hour)
	if got := c.Now().Sub(start); got != time.Hour {
		t.Errorf("advanced %v, want 1h", got)
	}
}
