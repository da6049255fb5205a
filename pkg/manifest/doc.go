// SPDX-License-Identifier: MPL-2.0

// Package manifest models version descriptors and resolves inheritance
// chains into a single merged descriptor.
//
// A Version is decoded from the vanilla JSON layout. Loader profiles use the
// same layout and name their base version in inheritsFrom; the Resolver walks
// that chain with a visited set, so a cycle is reported as ErrCycleDetected
// instead of looping, and merges parent-first:
//
//   - scalar fields set on the child override the parent
//   - libraries are concatenated and deduplicated by coordinate, child wins
//   - arguments are concatenated, parent arguments first
//
// Rules (Allowed) decide whether a library or conditional argument applies
// to a given Environment.
package manifest
