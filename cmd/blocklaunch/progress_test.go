// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/internal/launcher"
)

func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	task := download.Task{Name: "client.jar"}
	events := []launcher.Progress{
		{Stage: launcher.StageResolve, Message: "1.20.1"},
		{Stage: launcher.StageResolve, Message: "1.20.1 again"},
		{Stage: launcher.StageDownload, Download: &download.Event{Kind: download.EventStarted, Task: task}},
		{Stage: launcher.StageDownload, Download: &download.Event{Kind: download.EventRetrying, Task: task, Attempt: 2, Err: errors.New("503")}},
		{Stage: launcher.StageDownload, Download: &download.Event{Kind: download.EventCompleted, Task: task}},
		{Stage: launcher.StageDownload, Download: &download.Event{Kind: download.EventFailed, Task: task, Err: errors.New("gone")}},
	}

	tests := []struct {
		name     string
		verbose  bool
		want     []string
		dontWant []string
	}{
		{
			name:     "quiet",
			want:     []string{"resolve 1.20.1", "retry", "attempt 2", "failed", "gone"},
			dontWant: []string{"again", "✓"},
		},
		{
			name:    "verbose",
			verbose: true,
			want:    []string{"resolve 1.20.1", "again", "✓ client.jar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			p := newProgressPrinter(&buf, tt.verbose)
			for _, ev := range events {
				p.observe(ev)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.dontWant {
				if strings.Contains(out, w) {
					t.Errorf("output contains %q:\n%s", w, out)
				}
			}
		})
	}
}
