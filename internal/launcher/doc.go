// SPDX-License-Identifier: MPL-2.0

// Package launcher is the library API over the install and launch engine.
// A Launcher owns one game root and wires the version resolver, download
// orchestrator, natives extractor, loader installer, account manager and
// launch command builder together. Front ends such as the CLI drive it and
// follow progress through an Observer.
package launcher
