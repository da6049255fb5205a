// SPDX-License-Identifier: MPL-2.0

package runtime

import "fmt"

// Result is the outcome of a process run. Error is set only when the process
// could not be started or waited on; a process that ran and exited non-zero
// has a nil Error and a non-zero ExitCode.
type Result struct {
	ExitCode ExitCode
	// Output and ErrOutput hold captured streams when the Command had no
	// writer of its own.
	Output    string
	ErrOutput string
	Error     error
}

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// Success reports whether the process ran and exited with zero.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}

// Err folds the result into a single error, nil on success.
func (r *Result) Err() error {
	switch {
	case r.Error != nil:
		return r.Error
	case !r.ExitCode.IsSuccess():
		return fmt.Errorf("process exited with code %s", r.ExitCode)
	default:
		return nil
	}
}
