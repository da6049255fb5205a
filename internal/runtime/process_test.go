// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"os/exec"
	goruntime "runtime"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) string {
	t.Helper()
	if goruntime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecRunner_CapturesOutputAndExitCode(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	res := ExecRunner{}.Run(context.Background(), Command{
		Path: sh,
		Args: []string{"-c", `echo "$GREETING"; echo oops >&2; exit 3`},
		Env:  []string{"GREETING=hello"},
	})
	if res.Error != nil {
		t.Fatalf("Run() error = %v", res.Error)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Output) != "hello" {
		t.Errorf("Output = %q", res.Output)
	}
	if strings.TrimSpace(res.ErrOutput) != "oops" {
		t.Errorf("ErrOutput = %q", res.ErrOutput)
	}
}

func TestExecRunner_StreamsToWriters(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	var out strings.Builder
	res := ExecRunner{}.Run(context.Background(), Command{Path: sh, Args: []string{"-c", "echo streamed"}, Stdout: &out})
	if !res.Success() {
		t.Fatalf("Run() = %+v", res)
	}
	if res.Output != "" {
		t.Errorf("Output captured although a writer was given: %q", res.Output)
	}
	if strings.TrimSpace(out.String()) != "streamed" {
		t.Errorf("writer got %q", out.String())
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	t.Parallel()

	res := ExecRunner{}.Run(context.Background(), Command{Path: "/nonexistent/java"})
	if res.Error == nil {
		t.Fatal("Run() of a missing binary reported no error")
	}
}

func TestExecRunner_Cancellation(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res := ExecRunner{}.Run(ctx, Command{Path: sh, Args: []string{"-c", "sleep 10"}})
	if res.Success() {
		t.Fatal("cancelled process reported success")
	}
}
