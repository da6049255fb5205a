// SPDX-License-Identifier: MPL-2.0

package auth

const (
	// StateUnauthenticated means no usable session exists.
	StateUnauthenticated State = iota
	// StateDeviceCodePending means a device code is being requested.
	StateDeviceCodePending
	// StatePolling means the user is expected to approve the device code.
	StatePolling
	// StateTokenExchanging means the Xbox Live exchange is in progress.
	StateTokenExchanging
	// StateAuthenticated means a session is stored and not yet expired.
	StateAuthenticated
	// StateExpired means the stored session needs a refresh.
	StateExpired
	// StateRefreshing means a refresh is in flight.
	StateRefreshing
	// StateRefreshFailed is transient: the refresh token was rejected and
	// the session is being discarded.
	StateRefreshFailed
)

// State is a step of the session lifecycle.
type State int

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateDeviceCodePending:
		return "device-code-pending"
	case StatePolling:
		return "polling"
	case StateTokenExchanging:
		return "token-exchanging"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateRefreshing:
		return "refreshing"
	case StateRefreshFailed:
		return "refresh-failed"
	default:
		return "unknown"
	}
}
