// SPDX-License-Identifier: MPL-2.0

package download

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how transient failures are retried. The zero value is
// not useful; start from DefaultRetryPolicy.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries per task, including the first.
	MaxAttempts int
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration
	// Multiplier grows the delay after each retry.
	Multiplier float64
	// RandomizationFactor adds jitter: each delay is drawn from
	// [d*(1-f), d*(1+f)].
	RandomizationFactor float64
	// RetryableStatuses lists HTTP statuses treated as transient.
	RetryableStatuses []int
	// AttemptTimeout bounds a single transfer; zero disables the bound.
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy returns conservative defaults: five attempts, 500ms
// growing by 2x up to 30s with 50% jitter, and a two minute per-attempt bound.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         5,
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         30 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.5,
		RetryableStatuses: []int{
			http.StatusRequestTimeout,
			http.StatusTooEarly,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		AttemptTimeout: 2 * time.Minute,
	}
}

// newBackOff builds the backoff schedule for one task.
func (p RetryPolicy) newBackOff(ctx context.Context, attempts int) backoff.BackOffContext {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.Multiplier = p.Multiplier
	eb.RandomizationFactor = p.RandomizationFactor
	// The attempt ceiling bounds retries, not wall-clock time.
	eb.MaxElapsedTime = 0
	eb.Reset()

	retries := 0
	if attempts > 1 {
		retries = attempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

// retryableStatus reports whether an HTTP status is transient under the policy.
func (p RetryPolicy) retryableStatus(status int) bool {
	return slices.Contains(p.RetryableStatuses, status)
}

// transient classifies an attempt error. Parent context cancellation is never
// transient; a per-attempt timeout is.
func (p RetryPolicy) transient(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}

	var ne *NetworkError
	if errors.As(err, &ne) && ne.Status != 0 {
		return p.retryableStatus(ne.Status)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Connection resets and truncated bodies surface as plain I/O errors
	// wrapped in a NetworkError without a status.
	return errors.Is(err, ErrNetwork)
}
