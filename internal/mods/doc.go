// SPDX-License-Identifier: MPL-2.0

// Package mods reads the metadata of installed mod jars and checks their
// declared relations against each other and against the game, the Java
// runtime and the loader.
//
// Fabric and Quilt jars carry fabric.mod.json or quilt.mod.json, Forge and
// NeoForge jars carry META-INF/mods.toml or META-INF/neoforge.mods.toml, and
// Forge builds before 1.13 read mcmod.info. Jars nested inside a mod are
// read as well.
package mods
