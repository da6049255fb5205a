// SPDX-License-Identifier: MPL-2.0

package auth

import (
	"errors"
	"fmt"
)

const (
	// HopDeviceCode requests the device code.
	HopDeviceCode Hop = "device-code"
	// HopToken polls or refreshes the Microsoft token.
	HopToken Hop = "msa-token"
	// HopXboxLive authenticates with Xbox Live.
	HopXboxLive Hop = "xbox-live"
	// HopXSTS authorizes the Xbox Live token for game services.
	HopXSTS Hop = "xsts"
	// HopGameServices logs in to the game services.
	HopGameServices Hop = "game-services"
	// HopProfile fetches the player profile.
	HopProfile Hop = "profile"
)

var (
	// ErrInvalidGrant is returned when the identity provider rejects a code
	// or refresh token.
	ErrInvalidGrant = errors.New("invalid grant")

	// ErrExpiredDeviceCode is returned when the user did not approve the
	// device code in time.
	ErrExpiredDeviceCode = errors.New("device code expired")

	// ErrUserDeclined is returned when the user declined the sign-in.
	ErrUserDeclined = errors.New("sign-in declined")

	// ErrRefreshFailed is returned when a stored session could not be
	// refreshed; the player has to sign in again.
	ErrRefreshFailed = errors.New("session refresh failed")

	// ErrNoGameOwnership is returned when the account has no game profile.
	ErrNoGameOwnership = errors.New("account does not own the game")

	// ErrUnauthenticated is returned when no session is stored.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrInvalidName is returned for offline names the game rejects.
	ErrInvalidName = errors.New("invalid player name")

	// ErrNoClientID is returned when device-code sign-in is attempted
	// without an application client id.
	ErrNoClientID = errors.New("no client id configured")

	// ErrCorruptStore is returned by stores whose content cannot be decoded.
	ErrCorruptStore = errors.New("corrupt session store")
)

type (
	// Hop names one request of the sign-in chain.
	Hop string

	// HopError reports which request of the sign-in chain failed. Status is
	// the HTTP status, zero when no response arrived.
	HopError struct {
		Hop    Hop
		Status int
		Err    error
	}
)

// Error implements the error interface.
func (e *HopError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Hop, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Hop, e.Err)
}

// Unwrap returns the underlying cause.
func (e *HopError) Unwrap() error { return e.Err }
