// SPDX-License-Identifier: MPL-2.0

// Package runtime runs external processes: loader processor steps during
// installation and the game itself at launch. Runner is the seam tests use
// to observe or fake process execution; ExecRunner is the os/exec
// implementation.
package runtime
