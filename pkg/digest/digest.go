// SPDX-License-Identifier: MPL-2.0

package digest

import (
	"crypto/sha1" //nolint:gosec // SHA-1 is what upstream artifact manifests publish.
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	// SHA1 is the algorithm used by vanilla version and asset manifests.
	SHA1 Algorithm = "sha1"
	// SHA256 is used by some loader metadata and mirrors.
	SHA256 Algorithm = "sha256"
	// SHA512 is published by newer loader mavens.
	SHA512 Algorithm = "sha512"
	// BLAKE3 is used for locally computed cache keys.
	BLAKE3 Algorithm = "blake3"
)

var (
	// ErrUnsupportedAlgorithm is returned when a digest names an unknown algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")

	// ErrMalformed is returned when a digest string cannot be parsed.
	ErrMalformed = errors.New("malformed digest")

	hexLengths = map[Algorithm]int{
		SHA1:   sha1.Size * 2,
		SHA256: sha256.Size * 2,
		SHA512: sha512.Size * 2,
		BLAKE3: 64,
	}
)

type (
	// Algorithm names a digest function.
	Algorithm string

	// Digest is an algorithm-tagged hex digest. The zero value means
	// "no digest published" and verifies only by size.
	Digest struct {
		Algorithm Algorithm
		Hex       string
	}

	// UnsupportedAlgorithmError carries the rejected algorithm name.
	UnsupportedAlgorithmError struct {
		Value Algorithm
	}
)

// Error implements the error interface.
func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported digest algorithm %q (supported: sha1, sha256, sha512, blake3)", string(e.Value))
}

// Unwrap returns ErrUnsupportedAlgorithm so callers can use errors.Is.
func (e *UnsupportedAlgorithmError) Unwrap() error { return ErrUnsupportedAlgorithm }

// IsValid returns whether the algorithm is supported, and the validation
// errors if it is not.
func (a Algorithm) IsValid() (bool, []error) {
	if _, ok := hexLengths[a]; !ok {
		return false, []error{&UnsupportedAlgorithmError{Value: a}}
	}
	return true, nil
}

// String returns the algorithm name.
func (a Algorithm) String() string { return string(a) }

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case SHA1:
		return sha1.New(), nil //nolint:gosec // see import comment
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, &UnsupportedAlgorithmError{Value: a}
	}
}

// New creates a Digest, normalizing the hex value to lowercase.
func New(alg Algorithm, hexValue string) Digest {
	return Digest{Algorithm: alg, Hex: strings.ToLower(strings.TrimSpace(hexValue))}
}

// SHA1Hex is shorthand for New(SHA1, hexValue). An empty value yields the
// zero Digest.
func SHA1Hex(hexValue string) Digest {
	if hexValue == "" {
		return Digest{}
	}
	return New(SHA1, hexValue)
}

// Parse parses "algorithm:hex". A bare hex string is accepted when its length
// identifies exactly one algorithm (40 → sha1, 128 → sha512).
func Parse(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Digest{}, nil
	}

	alg, value, ok := strings.Cut(s, ":")
	if !ok {
		value = s
		switch len(s) {
		case hexLengths[SHA1]:
			alg = string(SHA1)
		case hexLengths[SHA512]:
			alg = string(SHA512)
		default:
			return Digest{}, fmt.Errorf("%w: cannot infer algorithm for %q", ErrMalformed, s)
		}
	}

	d := New(Algorithm(strings.ToLower(alg)), value)
	if err := d.Validate(); err != nil {
		return Digest{}, err
	}
	return d, nil
}

// Validate checks that the algorithm is supported and the hex value has the
// right length and alphabet.
func (d Digest) Validate() error {
	if d.IsZero() {
		return nil
	}
	if ok, errs := d.Algorithm.IsValid(); !ok {
		return errors.Join(errs...)
	}
	if len(d.Hex) != hexLengths[d.Algorithm] {
		return fmt.Errorf("%w: %s digest must have %d hex characters, got %d",
			ErrMalformed, d.Algorithm, hexLengths[d.Algorithm], len(d.Hex))
	}
	if _, err := hex.DecodeString(d.Hex); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// IsZero reports whether no digest was published.
func (d Digest) IsZero() bool { return d.Hex == "" }

// Equal compares two digests of the same algorithm, ignoring case.
func (d Digest) Equal(other Digest) bool {
	return d.Algorithm == other.Algorithm && strings.EqualFold(d.Hex, other.Hex)
}

// String returns "algorithm:hex", or "none" for the zero Digest.
func (d Digest) String() string {
	if d.IsZero() {
		return "none"
	}
	return string(d.Algorithm) + ":" + d.Hex
}
