// SPDX-License-Identifier: MPL-2.0

package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/blocklaunch/blocklaunch/pkg/digest"
)

// fetch performs one transfer of task from src. On success the verified
// artifact is at task.Dest; on any failure the temp file is removed and
// task.Dest is untouched.
func (o *Orchestrator) fetch(ctx context.Context, task Task, src string) (a Attempt, err error) {
	start := time.Now()
	a.URL = src
	defer func() {
		a.Duration = time.Since(start)
		a.Err = err
	}()

	attemptCtx := ctx
	if o.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.policy.AttemptTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, src, http.NoBody)
	if err != nil {
		return a, fmt.Errorf("creating request for %s: %w", redactURL(src), err)
	}
	req.Header.Set("User-Agent", o.userAgent)

	resp, err := o.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return a, ctx.Err()
		}
		return a, &NetworkError{URL: src, Err: err}
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	a.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		return a, &NetworkError{URL: src, Status: resp.StatusCode}
	}

	dir := filepath.Dir(task.Dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return a, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(task.Dest)+".part-*")
	if err != nil {
		return a, fmt.Errorf("creating temp file: %w", err)
	}

	// Track whether the rename succeeded so the deferred cleanup knows
	// whether to remove the temp file.
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	v, err := digest.NewVerifier(task.Digest)
	if err != nil {
		_ = tmp.Close()
		return a, err
	}

	var body io.Reader = resp.Body
	if task.Size > 0 {
		// One extra byte lets verification notice an oversized body.
		body = io.LimitReader(resp.Body, task.Size+1)
	}

	n, copyErr := io.Copy(io.MultiWriter(tmp, v), body)
	a.Bytes = n
	chmodErr := tmp.Chmod(0o644)
	closeErr := tmp.Close()

	if copyErr != nil {
		if ctx.Err() != nil {
			return a, ctx.Err()
		}
		return a, &NetworkError{URL: src, Err: copyErr}
	}
	if resp.ContentLength >= 0 && n < resp.ContentLength && (task.Size <= 0 || n <= task.Size) {
		return a, &NetworkError{URL: src, Err: io.ErrUnexpectedEOF}
	}
	if chmodErr != nil {
		return a, fmt.Errorf("setting permissions on %s: %w", tmp.Name(), chmodErr)
	}
	if closeErr != nil {
		return a, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if verr := v.Verify(task.Dest, task.Size); verr != nil {
		return a, &IntegrityError{
			Name:     task.label(),
			Dest:     task.Dest,
			Expected: task.Digest,
			Got:      v.Sum(),
			Size:     task.Size,
			GotSize:  n,
		}
	}

	if err := os.Rename(tmp.Name(), task.Dest); err != nil {
		return a, fmt.Errorf("moving %s into place: %w", task.Dest, err)
	}
	renamed = true

	return a, nil
}
