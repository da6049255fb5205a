// SPDX-License-Identifier: MPL-2.0

// Package mojang reads the remote version list and per-version descriptors.
// Client implements manifest.Source, so it can sit behind a local
// manifest.DirSource in a manifest.ChainSource.
package mojang
