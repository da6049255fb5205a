// SPDX-License-Identifier: MPL-2.0

package digest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
)

var (
	// ErrMismatch indicates the computed digest differs from the expected one.
	ErrMismatch = errors.New("digest mismatch")

	// ErrSizeMismatch indicates the content length differs from the expected size.
	ErrSizeMismatch = errors.New("size mismatch")
)

type (
	// MismatchError provides details about a digest verification failure.
	MismatchError struct {
		Path     string
		Expected Digest
		Got      Digest
	}

	// SizeError provides details about a size verification failure.
	SizeError struct {
		Path     string
		Expected int64
		Got      int64
	}

	// Verifier hashes and counts every byte written to it. Wrap a file writer
	// with io.MultiWriter(file, verifier) to verify while streaming.
	Verifier struct {
		want Digest
		h    hash.Hash
		n    int64
	}
)

// Error returns a description showing both digests.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("digest verification failed for %s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

// Unwrap returns ErrMismatch so callers can use errors.Is.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Error returns a description showing both sizes.
func (e *SizeError) Error() string {
	return fmt.Sprintf("size verification failed for %s: expected %d bytes, got %d", e.Path, e.Expected, e.Got)
}

// Unwrap returns ErrSizeMismatch so callers can use errors.Is.
func (e *SizeError) Unwrap() error { return ErrSizeMismatch }

// NewVerifier creates a Verifier for want. A zero want only counts bytes.
func NewVerifier(want Digest) (*Verifier, error) {
	v := &Verifier{want: want}
	if want.IsZero() {
		return v, nil
	}
	h, err := want.Algorithm.New()
	if err != nil {
		return nil, err
	}
	v.h = h
	return v, nil
}

// Write implements io.Writer.
func (v *Verifier) Write(p []byte) (int, error) {
	if v.h != nil {
		// hash.Hash.Write never returns an error.
		_, _ = v.h.Write(p)
	}
	v.n += int64(len(p))
	return len(p), nil
}

// Size returns the number of bytes written so far.
func (v *Verifier) Size() int64 { return v.n }

// Sum returns the digest of the bytes written so far. It is the zero Digest
// when the Verifier was created without an expected digest.
func (v *Verifier) Sum() Digest {
	if v.h == nil {
		return Digest{}
	}
	return Digest{Algorithm: v.want.Algorithm, Hex: hex.EncodeToString(v.h.Sum(nil))}
}

// Verify checks the bytes written against the expected digest and, when
// expectedSize is positive, the expected size. name labels the error.
func (v *Verifier) Verify(name string, expectedSize int64) error {
	if expectedSize > 0 && v.n != expectedSize {
		return &SizeError{Path: name, Expected: expectedSize, Got: v.n}
	}
	if v.want.IsZero() {
		return nil
	}
	if got := v.Sum(); !got.Equal(v.want) {
		return &MismatchError{Path: name, Expected: v.want, Got: got}
	}
	return nil
}

// ComputeReader streams r through alg and returns the digest and byte count.
func ComputeReader(r io.Reader, alg Algorithm) (Digest, int64, error) {
	h, err := alg.New()
	if err != nil {
		return Digest{}, 0, err
	}
	n, err := io.Copy(h, r)
	if err != nil {
		return Digest{}, n, err
	}
	return Digest{Algorithm: alg, Hex: hex.EncodeToString(h.Sum(nil))}, n, nil
}

// ComputeFile streams the file at path through alg.
func ComputeFile(path string, alg Algorithm) (_ Digest, _ int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, err
	}
	defer func() {
		// Read-only handle.
		_ = f.Close()
	}()

	d, n, err := ComputeReader(f, alg)
	if err != nil {
		return Digest{}, n, fmt.Errorf("hashing file %s: %w", path, err)
	}
	return d, n, nil
}

// VerifyFile checks the file at path against want and, when positive, size.
// It returns a *SizeError or *MismatchError on failure.
func VerifyFile(path string, want Digest, size int64) error {
	if want.IsZero() {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if size > 0 && info.Size() != size {
			return &SizeError{Path: path, Expected: size, Got: info.Size()}
		}
		return nil
	}

	got, n, err := ComputeFile(path, want.Algorithm)
	if err != nil {
		return err
	}
	if size > 0 && n != size {
		return &SizeError{Path: path, Expected: size, Got: n}
	}
	if !got.Equal(want) {
		return &MismatchError{Path: path, Expected: want, Got: got}
	}
	return nil
}

// Matches reports whether path exists and satisfies want and size. A missing
// file is not an error.
func Matches(path string, want Digest, size int64) (bool, error) {
	err := VerifyFile(path, want, size)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist), errors.Is(err, ErrMismatch), errors.Is(err, ErrSizeMismatch):
		return false, nil
	default:
		return false, err
	}
}
