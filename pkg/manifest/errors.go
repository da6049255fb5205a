// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycleDetected is returned when an inheritance chain revisits a version.
	ErrCycleDetected = errors.New("inheritance cycle detected")

	// ErrMissingField is returned when a required field is absent after merging,
	// or when a launch placeholder references a value that does not exist.
	ErrMissingField = errors.New("missing required field")

	// ErrVersionNotFound is returned by a Source that does not know a version.
	ErrVersionNotFound = errors.New("version not found")

	// ErrInvalidCoordinate is returned for malformed Maven coordinates.
	ErrInvalidCoordinate = errors.New("invalid maven coordinate")
)

type (
	// CycleError lists the versions forming the cycle; the first and last
	// entries are the same id.
	CycleError struct {
		Chain []string
	}

	// MissingFieldError names the version and the absent field.
	MissingFieldError struct {
		Version string
		Field   string
	}

	// NotFoundError names a version no source could provide.
	NotFoundError struct {
		ID string
	}
)

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "inheritance cycle detected: " + strings.Join(e.Chain, " -> ")
}

// Unwrap returns ErrCycleDetected so callers can use errors.Is.
func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("version %s: missing required field %q", e.Version, e.Field)
}

// Unwrap returns ErrMissingField so callers can use errors.Is.
func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("version %q not found", e.ID)
}

// Unwrap returns ErrVersionNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() error { return ErrVersionNotFound }
