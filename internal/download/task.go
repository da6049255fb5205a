// SPDX-License-Identifier: MPL-2.0

package download

import (
	"errors"
	"fmt"
	"time"

	"github.com/blocklaunch/blocklaunch/pkg/digest"
)

const (
	// StatusDownloaded means the artifact was fetched and verified.
	StatusDownloaded Status = iota + 1
	// StatusSatisfied means the destination already matched; nothing was fetched.
	StatusSatisfied
	// StatusFailed means the task ended with an error.
	StatusFailed
)

const (
	// EventStarted is emitted when a task begins its first transfer.
	EventStarted EventKind = iota + 1
	// EventRetrying is emitted before a retry attempt.
	EventRetrying
	// EventCompleted is emitted when a task downloaded and verified its artifact.
	EventCompleted
	// EventSatisfied is emitted when a task was skipped because the destination matched.
	EventSatisfied
	// EventFailed is emitted when a task failed.
	EventFailed
)

// errNoSources is returned by Task.Validate when a task has no URL.
var errNoSources = errors.New("task has no source URL")

type (
	// Status is the terminal state of a task.
	Status int

	// EventKind classifies progress events.
	EventKind int

	// Task describes one artifact to fetch. A Task is never mutated by the
	// orchestrator; each try is recorded as an Attempt on the Outcome.
	Task struct {
		// Name is a display label, typically the artifact's logical path.
		Name string
		// Sources are tried in rotation, first entry first.
		Sources []string
		// Dest is the final path of the artifact.
		Dest string
		// Digest is the expected digest; the zero value skips hash verification.
		Digest digest.Digest
		// Size is the expected size in bytes; 0 means unknown.
		Size int64
		// MaxAttempts overrides the orchestrator's retry ceiling when positive.
		MaxAttempts int
	}

	// Attempt records a single transfer try.
	Attempt struct {
		URL      string
		Status   int
		Bytes    int64
		Duration time.Duration
		Err      error
	}

	// Outcome is the per-task result of Orchestrator.Run.
	Outcome struct {
		Task     Task
		Status   Status
		Attempts []Attempt
		Err      error
	}

	// Event is a progress notification delivered to an Observer.
	Event struct {
		Kind    EventKind
		Task    Task
		Attempt int
		Err     error
	}

	// Observer receives progress events. It is called from worker
	// goroutines and must be safe for concurrent use.
	Observer func(Event)
)

// String returns a lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusSatisfied:
		return "satisfied"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// String returns a lowercase event name.
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventRetrying:
		return "retrying"
	case EventCompleted:
		return "completed"
	case EventSatisfied:
		return "satisfied"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validate checks that the task can be executed.
func (t Task) Validate() error {
	if len(t.Sources) == 0 {
		return fmt.Errorf("%s: %w", t.label(), errNoSources)
	}
	if t.Dest == "" {
		return fmt.Errorf("%s: task has no destination", t.label())
	}
	if t.Size < 0 {
		return fmt.Errorf("%s: negative size %d", t.label(), t.Size)
	}
	return t.Digest.Validate()
}

// label returns the best available display name.
func (t Task) label() string {
	if t.Name != "" {
		return t.Name
	}
	if t.Dest != "" {
		return t.Dest
	}
	if len(t.Sources) > 0 {
		return t.Sources[0]
	}
	return "<unnamed task>"
}

// OK reports whether the task ended with the artifact in place.
func (o Outcome) OK() bool {
	return o.Status == StatusDownloaded || o.Status == StatusSatisfied
}
