// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the blocklaunch command line interface. Commands are
// thin wrappers over internal/launcher: they load configuration, build a
// Launcher from it and render progress and errors.
package cmd
