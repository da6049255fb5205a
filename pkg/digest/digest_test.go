// SPDX-License-Identifier: MPL-2.0

package digest

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	helloSHA1   = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"
	helloSHA256 = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	emptyBLAKE3 = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Digest
		wantErr error
	}{
		{"empty", "", Digest{}, nil},
		{"tagged sha256", "sha256:" + helloSHA256, New(SHA256, helloSHA256), nil},
		{"upper case", "SHA1:" + strings.ToUpper(helloSHA1), New(SHA1, helloSHA1), nil},
		{"bare sha1", helloSHA1, New(SHA1, helloSHA1), nil},
		{"bare ambiguous", helloSHA256, Digest{}, ErrMalformed},
		{"unknown algorithm", "md4:abcd", Digest{}, ErrUnsupportedAlgorithm},
		{"short hex", "sha1:abcd", Digest{}, ErrMalformed},
		{"bad hex", "sha1:" + strings.Repeat("z", 40), Digest{}, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestComputeReader_KnownVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		alg   Algorithm
		input string
		want  string
	}{
		{SHA1, "hello world", helloSHA1},
		{SHA256, "hello world", helloSHA256},
		{BLAKE3, "", emptyBLAKE3},
	}

	for _, tt := range tests {
		got, n, err := ComputeReader(strings.NewReader(tt.input), tt.alg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.alg, err)
		}
		if got.Hex != tt.want {
			t.Errorf("%s: got %q, want %q", tt.alg, got.Hex, tt.want)
		}
		if n != int64(len(tt.input)) {
			t.Errorf("%s: got size %d, want %d", tt.alg, n, len(tt.input))
		}
	}
}

func TestVerifier_StreamingMatchesWholeInput(t *testing.T) {
	t.Parallel()

	v, err := NewVerifier(New(SHA1, helloSHA1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Feed the input in small chunks to mimic a network stream.
	r := strings.NewReader("hello world")
	buf := make([]byte, 3)
	if _, err := io.CopyBuffer(v, struct{ io.Reader }{r}, buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.Verify("stream", 11); err != nil {
		t.Fatalf("Verify() = %v, want nil", err)
	}
	if v.Size() != 11 {
		t.Errorf("Size() = %d, want 11", v.Size())
	}
}

func TestVerifier_Mismatch(t *testing.T) {
	t.Parallel()

	v, err := NewVerifier(New(SHA1, helloSHA1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = v.Write([]byte("hello there"))

	err = v.Verify("stream", 0)
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("Verify() = %v, want ErrMismatch", err)
	}

	var mm *MismatchError
	if !errors.As(err, &mm) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if mm.Expected.Hex != helloSHA1 {
		t.Errorf("Expected = %q, want %q", mm.Expected.Hex, helloSHA1)
	}
}

func TestVerifier_ZeroDigestChecksSizeOnly(t *testing.T) {
	t.Parallel()

	v, err := NewVerifier(Digest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = v.Write([]byte("abc"))

	if err := v.Verify("x", 3); err != nil {
		t.Errorf("Verify(3) = %v, want nil", err)
	}
	if err := v.Verify("x", 4); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Verify(4) = %v, want ErrSizeMismatch", err)
	}
	if !v.Sum().IsZero() {
		t.Errorf("Sum() = %v, want zero", v.Sum())
	}
}

func TestNewVerifier_UnsupportedAlgorithm(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier(Digest{Algorithm: "crc32", Hex: "00"})
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("got %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestVerifyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.jar")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := VerifyFile(path, New(SHA256, helloSHA256), 11); err != nil {
		t.Errorf("VerifyFile() = %v, want nil", err)
	}
	if err := VerifyFile(path, New(SHA256, helloSHA256), 12); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("VerifyFile(wrong size) = %v, want ErrSizeMismatch", err)
	}
	if err := VerifyFile(path, New(SHA1, strings.Repeat("0", 40)), 0); !errors.Is(err, ErrMismatch) {
		t.Errorf("VerifyFile(wrong digest) = %v, want ErrMismatch", err)
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tests := []struct {
		name string
		path string
		want Digest
		size int64
		ok   bool
	}{
		{"match", path, New(SHA1, helloSHA1), 11, true},
		{"missing file", filepath.Join(dir, "missing"), New(SHA1, helloSHA1), 11, false},
		{"wrong digest", path, New(SHA1, strings.Repeat("1", 40)), 11, false},
		{"zero digest right size", path, Digest{}, 11, true},
		{"zero digest wrong size", path, Digest{}, 10, false},
	}

	for _, tt := range tests {
		got, err := Matches(tt.path, tt.want, tt.size)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.ok {
			t.Errorf("%s: Matches() = %v, want %v", tt.name, got, tt.ok)
		}
	}
}

func TestDigest_String(t *testing.T) {
	t.Parallel()

	if got := (Digest{}).String(); got != "none" {
		t.Errorf("zero String() = %q, want %q", got, "none")
	}
	if got := SHA1Hex(helloSHA1).String(); got != "sha1:"+helloSHA1 {
		t.Errorf("String() = %q", got)
	}
	if !SHA1Hex("").IsZero() {
		t.Error("SHA1Hex(\"\") should be zero")
	}
}
