// SPDX-License-Identifier: MPL-2.0

package platform

import "strings"

// windowsReserved are device names Windows refuses as file names, with or
// without an extension.
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsWindowsReservedName reports whether a single file name is a Windows
// device name.
func IsWindowsReservedName(name string) bool {
	upper := strings.ToUpper(name)
	if idx := strings.IndexByte(upper, '.'); idx != -1 {
		upper = upper[:idx]
	}
	return windowsReserved[upper]
}

// HasWindowsReservedName reports whether any element of a slash-separated
// archive path is a Windows device name.
func HasWindowsReservedName(p string) bool {
	for elem := range strings.SplitSeq(p, "/") {
		if IsWindowsReservedName(elem) {
			return true
		}
	}
	return false
}
