// SPDX-License-Identifier: MPL-2.0

// Package loader installs mod loaders on top of an installed base version.
//
// Each Variant is served by a Provider, which resolves a requested loader
// version (VersionResolver) and plans the installation (Planner). The
// Installer executes the plan in a staging directory under the game root:
// artifacts are downloaded there, processor steps write their outputs there,
// and only after every step succeeded are the staged libraries moved into
// the library directory and the composed descriptor written. The descriptor
// write is the commit point; a failure before it leaves previously committed
// files as they were.
package loader
