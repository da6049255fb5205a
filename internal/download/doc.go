// SPDX-License-Identifier: MPL-2.0

// Package download fetches and verifies artifacts with bounded concurrency.
//
// An Orchestrator runs a batch of immutable Tasks. Each task is skipped when
// its destination already satisfies the expected digest and size; otherwise
// the body is streamed into a temporary sibling file, hashed while writing,
// and renamed into place only after verification. Transient failures are
// retried with exponential backoff, rotating across the task's sources
// (mirror first, origin fallback). Tasks that share a destination are
// serialized.
//
// The package is organized into:
//   - task.go: Task, Attempt, Outcome and progress events
//   - errors.go: NetworkError, IntegrityError and BatchError
//   - policy.go: retry policy and HTTP status classification
//   - orchestrator.go: the Orchestrator and its options
//   - fetch.go: the single-attempt transfer into a verified temp file
//   - mirror.go: mirror host rewriting
//   - metrics.go: Prometheus collectors
package download
