// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strconv"
)

// signalBase is added to a signal number by shells and by extractExitCode
// for processes killed by that signal.
const signalBase = 128

// ErrInvalidExitCode is wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is the status a game or installer step ended with, in the
	// POSIX 0-255 range. It is also the status the CLI exits with after a
	// launch, so the game's own failures reach the calling shell.
	ExitCode int

	// InvalidExitCodeError reports a status outside 0-255, which the
	// platform returned for a process that did not exit normally.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d out of range 0-255", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an *InvalidExitCodeError outside 0-255.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports a zero status.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// Signal returns n when the status is the 128+n of a process killed by
// signal n, such as a game stopped with SIGKILL after an out-of-memory kill.
func (c ExitCode) Signal() (int, bool) {
	if c > signalBase && c < signalBase+32 {
		return int(c - signalBase), true
	}
	return 0, false
}

// IsSignal reports whether Signal finds a signal.
func (c ExitCode) IsSignal() bool {
	_, ok := c.Signal()
	return ok
}

// Describe renders the status for failure messages: "exit code 1" or
// "killed by signal 9".
func (c ExitCode) Describe() string {
	if n, ok := c.Signal(); ok {
		return "killed by signal " + strconv.Itoa(n)
	}
	return "exit code " + c.String()
}

// String returns the decimal status.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
