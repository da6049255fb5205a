// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride and dataDirOverride let tests bypass os.UserHomeDir(),
// which does not reliably respect HOME on every platform.
var (
	configDirOverride string
	dataDirOverride   string
)

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	dataDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetDataDirOverride sets a custom default game directory.
func SetDataDirOverride(dir string) {
	dataDirOverride = dir
}
