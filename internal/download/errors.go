// SPDX-License-Identifier: MPL-2.0

package download

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blocklaunch/blocklaunch/pkg/digest"
)

var (
	// ErrNetwork is the sentinel for transfer failures (connection errors,
	// timeouts, unexpected HTTP statuses).
	ErrNetwork = errors.New("network error")

	// ErrIntegrity is the sentinel for artifacts whose content does not match
	// the expected digest or size after a complete transfer.
	ErrIntegrity = errors.New("integrity check failed")
)

type (
	// NetworkError describes a failed transfer. Status is zero when no HTTP
	// response was received.
	NetworkError struct {
		URL    string
		Status int
		Err    error
	}

	// IntegrityError describes an artifact whose complete body failed
	// verification from every source.
	IntegrityError struct {
		Name     string
		Dest     string
		Expected digest.Digest
		Got      digest.Digest
		Size     int64
		GotSize  int64
	}

	// BatchError aggregates the failed outcomes of a batch.
	BatchError struct {
		Failed []Outcome
	}
)

// Error implements the error interface.
func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("fetching %s: HTTP %d: %v", redactURL(e.URL), e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("fetching %s: unexpected status %d", redactURL(e.URL), e.Status)
	default:
		return fmt.Sprintf("fetching %s: %v", redactURL(e.URL), e.Err)
	}
}

// Unwrap returns both ErrNetwork and the underlying cause so errors.Is works
// for either.
func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "integrity check failed for %s", e.Name)
	if e.Size > 0 && e.GotSize != e.Size {
		fmt.Fprintf(&sb, ": expected %d bytes, got %d", e.Size, e.GotSize)
	}
	if !e.Expected.IsZero() && !e.Got.Equal(e.Expected) {
		fmt.Fprintf(&sb, ": expected %s, got %s", e.Expected, e.Got)
	}
	return sb.String()
}

// Unwrap returns ErrIntegrity so callers can use errors.Is.
func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// Error summarizes the failed tasks.
func (e *BatchError) Error() string {
	if len(e.Failed) == 1 {
		return e.Failed[0].Err.Error()
	}
	return fmt.Sprintf("%d downloads failed; first: %v", len(e.Failed), e.Failed[0].Err)
}

// Unwrap exposes every task error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, o := range e.Failed {
		errs = append(errs, o.Err)
	}
	return errs
}

// redactURL strips the query string, which may carry signed tokens.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i] + "?<redacted>"
	}
	return raw
}
