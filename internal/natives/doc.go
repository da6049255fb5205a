// SPDX-License-Identifier: MPL-2.0

// Package natives unpacks platform native libraries into a version's
// natives directory before launch.
//
// Only libraries in the natives-map form are extracted. Libraries whose
// coordinate carries a natives-* classifier stay on the classpath and are
// loaded from there by the game.
package natives
