// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/internal/launcher"
)

// progressPrinter renders launcher progress on a terminal stream. Observers
// run on worker goroutines, so writes are serialized.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	stage   launcher.Stage
}

func newProgressPrinter(w io.Writer, verbose bool) *progressPrinter {
	return &progressPrinter{w: w, verbose: verbose}
}

func (p *progressPrinter) observe(pr launcher.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pr.Download == nil {
		if pr.Stage != p.stage || p.verbose {
			fmt.Fprintf(p.w, "%s %s\n", TitleStyle.Render("›"), SubtitleStyle.Render(fmt.Sprintf("%s %s", pr.Stage, pr.Message)))
		}
		p.stage = pr.Stage
		return
	}

	ev := pr.Download
	switch ev.Kind {
	case download.EventRetrying:
		fmt.Fprintf(p.w, "  %s %s (attempt %d): %v\n", WarningStyle.Render("retry"), ev.Task.Name, ev.Attempt, ev.Err)
	case download.EventFailed:
		fmt.Fprintf(p.w, "  %s %s: %v\n", ErrorStyle.Render("failed"), ev.Task.Name, ev.Err)
	case download.EventCompleted:
		if p.verbose {
			fmt.Fprintf(p.w, "  %s %s\n", SuccessStyle.Render("✓"), ev.Task.Name)
		}
	}
}
