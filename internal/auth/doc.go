// SPDX-License-Identifier: MPL-2.0

// Package auth owns the player session. A Manager signs players in with the
// Microsoft device-code flow, exchanges the resulting token through Xbox Live
// for a game token, refreshes expired sessions and persists the single
// current session through a Store. Yggdrasil accounts sign in with a
// password against a third-party server and launch through the
// authlib-injector agent. Offline accounts skip the network entirely.
package auth
