// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of failures a player can run into, each
// with a Markdown explanation rendered by glamour, and ActionableError, the
// error type commands return so the CLI can print what failed and what to
// try next.
package issue
