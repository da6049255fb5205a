// SPDX-License-Identifier: MPL-2.0

package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	"github.com/blocklaunch/blocklaunch/pkg/digest"
)

// DefaultConcurrency is the worker budget when none is configured.
const DefaultConcurrency = 8

type (
	// Orchestrator runs download batches. It is safe for concurrent use;
	// destination serialization spans every Run call on the same value.
	Orchestrator struct {
		client      *http.Client
		concurrency int
		policy      RetryPolicy
		userAgent   string
		logger      *log.Logger
		observer    Observer
		metrics     *metrics
		locks       keyedMutex
	}

	// Option configures an Orchestrator during construction.
	Option func(*Orchestrator)

	keyedMutex struct {
		mu    sync.Mutex
		locks map[string]*keyedEntry
	}

	keyedEntry struct {
		mu   sync.Mutex
		refs int
	}
)

// WithHTTPClient sets the HTTP client used for transfers.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Orchestrator) {
		o.client = c
	}
}

// WithConcurrency sets the worker budget. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *Orchestrator) {
		o.userAgent = ua
	}
}

// WithLogger sets the logger for retry and failure diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithObserver sets the progress callback.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// WithRegisterer registers the orchestrator's Prometheus collectors.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *Orchestrator) {
		if reg == nil {
			return
		}
		if err := o.metrics.register(reg); err != nil && o.logger != nil {
			o.logger.Warn("download metrics not registered", "error", err)
		}
	}
}

// New creates an Orchestrator with DefaultConcurrency, DefaultRetryPolicy
// and http.DefaultClient.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:      http.DefaultClient,
		concurrency: DefaultConcurrency,
		policy:      DefaultRetryPolicy(),
		userAgent:   "blocklaunch/dev",
		logger:      log.New(io.Discard),
		metrics:     newMetrics(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes tasks with at most the configured number in flight and
// returns one Outcome per task, in input order. Run never returns early on a
// task failure; cancelling ctx aborts outstanding transfers and removes
// their temporary files.
func (o *Orchestrator) Run(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	sem := semaphore.NewWeighted(int64(o.concurrency))

	var wg sync.WaitGroup
	for i := range tasks {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(tasks); j++ {
				outcomes[j] = o.finish(Outcome{Task: tasks[j], Status: StatusFailed, Err: err})
			}
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = o.finish(o.runTask(ctx, tasks[i]))
		}(i)
	}
	wg.Wait()

	return outcomes
}

// RunAll is Run for callers that only need success or failure. The returned
// error is a *BatchError listing every failed outcome.
func (o *Orchestrator) RunAll(ctx context.Context, tasks []Task) error {
	var failed []Outcome
	for _, out := range o.Run(ctx, tasks) {
		if !out.OK() {
			failed = append(failed, out)
		}
	}
	if len(failed) > 0 {
		return &BatchError{Failed: failed}
	}
	return nil
}

// runTask executes one task under its destination lock.
func (o *Orchestrator) runTask(ctx context.Context, task Task) Outcome {
	out := Outcome{Task: task}

	if err := task.Validate(); err != nil {
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	unlock := o.locks.lock(filepath.Clean(task.Dest))
	defer unlock()

	if err := ctx.Err(); err != nil {
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	satisfied, err := digest.Matches(task.Dest, task.Digest, task.Size)
	if err != nil {
		out.Status = StatusFailed
		out.Err = fmt.Errorf("checking existing %s: %w", task.Dest, err)
		return out
	}
	if satisfied {
		out.Status = StatusSatisfied
		return out
	}

	o.emit(Event{Kind: EventStarted, Task: task, Attempt: 1})

	maxAttempts := task.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = o.policy.MaxAttempts
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	sources := uniqueSources(task.Sources)
	bad := make(map[string]bool, len(sources))
	attempt := 0

	operation := func() error {
		src := pickSource(sources, attempt, bad)
		attempt++

		a, err := o.fetch(ctx, task, src)
		out.Attempts = append(out.Attempts, a)
		if err == nil {
			return nil
		}

		// A complete body with the wrong content, or a non-retryable status,
		// disqualifies that source; another source may still serve the
		// right bytes.
		var ie *IntegrityError
		var ne *NetworkError
		if errors.As(err, &ie) || (errors.As(err, &ne) && ne.Status != 0 && !o.policy.retryableStatus(ne.Status)) {
			bad[src] = true
			if len(bad) >= len(sources) {
				return backoff.Permanent(err)
			}
			return err
		}
		if !o.policy.transient(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		o.logger.Debug("download retry",
			"task", task.label(), "attempt", attempt+1, "wait", wait, "error", err)
		o.emit(Event{Kind: EventRetrying, Task: task, Attempt: attempt + 1, Err: err})
	}

	if err := backoff.RetryNotify(operation, o.policy.newBackOff(ctx, maxAttempts), notify); err != nil {
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	out.Status = StatusDownloaded
	return out
}

// finish records metrics and emits the terminal event.
func (o *Orchestrator) finish(out Outcome) Outcome {
	o.metrics.observeOutcome(out)

	switch out.Status {
	case StatusDownloaded:
		o.emit(Event{Kind: EventCompleted, Task: out.Task, Attempt: len(out.Attempts)})
	case StatusSatisfied:
		o.emit(Event{Kind: EventSatisfied, Task: out.Task})
	default:
		o.logger.Debug("download failed", "task", out.Task.label(), "error", out.Err)
		o.emit(Event{Kind: EventFailed, Task: out.Task, Attempt: len(out.Attempts), Err: out.Err})
	}
	return out
}

func (o *Orchestrator) emit(ev Event) {
	if o.observer != nil {
		o.observer(ev)
	}
}

// uniqueSources drops repeated URLs while keeping order.
func uniqueSources(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// pickSource rotates through sources starting at attempt, skipping sources
// that already served corrupt content.
func pickSource(sources []string, attempt int, bad map[string]bool) string {
	for i := range sources {
		s := sources[(attempt+i)%len(sources)]
		if !bad[s] {
			return s
		}
	}
	return sources[attempt%len(sources)]
}

// lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
