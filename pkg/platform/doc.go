// SPDX-License-Identifier: MPL-2.0

// Package platform describes the host the game client runs on, using the
// operating system and architecture names found in version descriptors
// ("windows", "osx", "linux"; "x86", "x86_64", "arm64").
package platform
