// SPDX-License-Identifier: MPL-2.0

package launcher

import "github.com/blocklaunch/blocklaunch/internal/download"

// Stages reported through Progress.
const (
	StageResolve  Stage = "resolve"
	StageDownload Stage = "download"
	StageNatives  Stage = "natives"
	StageAssets   Stage = "assets"
	StageLoader   Stage = "loader"
	StageAuth     Stage = "auth"
	StageLaunch   Stage = "launch"
)

type (
	// Stage names a phase of a Launcher operation.
	Stage string

	// Progress is one notification. Download is set for per-file events
	// of the default download orchestrator.
	Progress struct {
		Stage    Stage
		Message  string
		Download *download.Event
	}

	// Observer receives progress. It may be called from several goroutines
	// at once.
	Observer func(Progress)
)

func (l *Launcher) observe(p Progress) {
	if l.observer != nil {
		l.observer(p)
	}
}

// forwardDownload relays orchestrator events.
func (l *Launcher) forwardDownload(ev download.Event) {
	l.observe(Progress{Stage: StageDownload, Message: ev.Task.Name, Download: &ev})
}
