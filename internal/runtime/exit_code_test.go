// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"testing"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     ExitCode
		valid    bool
		success  bool
		signal   bool
		describe string
	}{
		{0, true, true, false, "exit code 0"},
		{1, true, false, false, "exit code 1"},
		{137, true, false, true, "killed by signal 9"},
		{143, true, false, true, "killed by signal 15"},
		{255, true, false, false, "exit code 255"},
		{-1, false, false, false, "exit code -1"},
		{256, false, false, false, "exit code 256"},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			t.Parallel()

			err := tt.code.Validate()
			if (err == nil) != tt.valid {
				t.Errorf("Validate() = %v, want valid=%v", err, tt.valid)
			}
			if err != nil && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("Validate() error does not wrap ErrInvalidExitCode")
			}
			if got := tt.code.IsSuccess(); got != tt.success {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.success)
			}
			if got := tt.code.IsSignal(); got != tt.signal {
				t.Errorf("IsSignal() = %v, want %v", got, tt.signal)
			}
			if got := tt.code.Describe(); got != tt.describe {
				t.Errorf("Describe() = %q, want %q", got, tt.describe)
			}
		})
	}
}

func TestResult_Err(t *testing.T) {
	t.Parallel()

	if err := (&Result{}).Err(); err != nil {
		t.Errorf("success Err() = %v", err)
	}
	if err := NewExitCodeResult(2).Err(); err == nil {
		t.Error("non-zero exit Err() = nil")
	}
	boom := errors.New("boom")
	if err := NewErrorResult(1, boom).Err(); !errors.Is(err, boom) {
		t.Errorf("start failure Err() = %v", err)
	}
}
