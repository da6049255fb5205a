// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// waitDelay bounds how long a cancelled process may take to exit before its
// pipes are closed.
const waitDelay = 5 * time.Second

type (
	// Command describes a process to run.
	Command struct {
		Path string
		Args []string
		Dir  string
		// Env entries are appended to the host environment.
		Env    []string
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner runs a Command to completion.
	Runner interface {
		Run(ctx context.Context, cmd Command) *Result
	}

	// RunnerFunc adapts a function to Runner.
	RunnerFunc func(ctx context.Context, cmd Command) *Result

	// ExecRunner runs commands with os/exec.
	ExecRunner struct {
		Logger *log.Logger
	}
)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, cmd Command) *Result {
	return f(ctx, cmd)
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Run implements Runner. Streams without a writer are captured into the
// Result.
func (r ExecRunner) Run(ctx context.Context, c Command) *Result {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdin = c.Stdin
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = c.Stdout, c.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = &stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}

	if r.Logger != nil {
		r.Logger.Debug("running process", "path", c.Path, "args", len(c.Args), "dir", c.Dir)
	}

	result := extractExitCode(cmd.Run())
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	if result.Error == nil && ctx.Err() != nil && !result.ExitCode.IsSuccess() {
		result.Error = ctx.Err()
	}
	return result
}

// extractExitCode maps a cmd.Run error to a Result.
func extractExitCode(err error) *Result {
	if err == nil {
		return &Result{}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := ExitCode(exitErr.ExitCode())
		if code < 0 {
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				return &Result{ExitCode: signalBase + ExitCode(ws.Signal())}
			}
			return &Result{ExitCode: signalBase + ExitCode(syscall.SIGKILL)}
		}
		if validateErr := code.Validate(); validateErr != nil {
			return NewErrorResult(1, validateErr)
		}
		return NewExitCodeResult(code)
	}

	return NewErrorResult(1, err)
}
