// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/blocklaunch/config.cue (or the XDG
// equivalent on Linux, ~/Library/Application Support/blocklaunch/config.cue on
// macOS, %APPDATA%\blocklaunch\config.cue on Windows). It covers the game
// directory, Java path, download mirror and retry policy, account sign-in and
// launch defaults.
//
// Files are validated against the embedded schema (config_schema.cue) before
// being merged over the built-in defaults.
package config
