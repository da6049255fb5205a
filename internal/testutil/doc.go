// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by package tests: environment and
// filesystem setup that fails the test on error, zip fixtures for native and
// installer archives, and a controllable clock.
package testutil
