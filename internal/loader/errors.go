// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"

	"github.com/blocklaunch/blocklaunch/internal/runtime"
)

var (
	// ErrUnsupportedVersionCombination is returned when a variant has no
	// build for the requested game and loader versions.
	ErrUnsupportedVersionCombination = errors.New("unsupported version combination")

	// ErrProcessorFailed is returned when an installation step fails.
	ErrProcessorFailed = errors.New("processor failed")

	// ErrUnknownVariant is returned for loader names no provider serves.
	ErrUnknownVariant = errors.New("unknown loader variant")

	// ErrInvalidInstaller is returned when an installer archive lacks the
	// files an installation needs.
	ErrInvalidInstaller = errors.New("invalid installer")
)

type (
	// UnsupportedError names the rejected combination.
	UnsupportedError struct {
		Variant     Variant
		GameVersion string
		Requested   string
		Reason      string
	}

	// ProcessorFailedError reports a failed step. Step is 1-based. ExitCode
	// is zero when the process succeeded but its outputs did not verify, or
	// when it could not be started.
	ProcessorFailedError struct {
		Step     int
		Total    int
		Name     string
		ExitCode runtime.ExitCode
		Output   string
		Err      error
	}
)

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	msg := fmt.Sprintf("%s %s is not available for %s", e.Variant, e.Requested, e.GameVersion)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap returns ErrUnsupportedVersionCombination so callers can use errors.Is.
func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedVersionCombination }

// Error implements the error interface.
func (e *ProcessorFailedError) Error() string {
	msg := fmt.Sprintf("step %d of %d (%s) failed", e.Step, e.Total, e.Name)
	if !e.ExitCode.IsSuccess() {
		msg += " (" + e.ExitCode.Describe() + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrProcessorFailed and the underlying cause.
func (e *ProcessorFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProcessorFailed}
	}
	return []error{ErrProcessorFailed, e.Err}
}
