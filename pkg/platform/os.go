// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"runtime"
	"strings"
)

// GOOS values used across the module.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// Descriptor OS names.
const (
	OSWindows = "windows"
	OSX       = "osx"
	OSLinux   = "linux"
)

// Descriptor architecture names.
const (
	ArchX86    = "x86"
	ArchX86_64 = "x86_64" //nolint:revive // mirrors the descriptor spelling
	ArchARM64  = "arm64"
	ArchARM32  = "arm32"
)

// osVersion reads the kernel or OS release string.
//
//nolint:gochecknoglobals // Test seam for deterministic host detection.
var osVersion = func() string {
	if runtime.GOOS != Linux {
		return ""
	}
	data, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Platform identifies an OS/architecture pair in descriptor terms.
type Platform struct {
	OS      string
	Arch    string
	Version string
}

// Current returns the Platform of the running process.
func Current() Platform {
	return Platform{
		OS:      OSName(runtime.GOOS),
		Arch:    ArchName(runtime.GOARCH),
		Version: osVersion(),
	}
}

// OSName maps a GOOS value to the descriptor OS name.
func OSName(goos string) string {
	switch goos {
	case Windows:
		return OSWindows
	case Darwin:
		return OSX
	default:
		return OSLinux
	}
}

// ArchName maps a GOARCH value to the descriptor architecture name.
func ArchName(goarch string) string {
	switch goarch {
	case "386":
		return ArchX86
	case "amd64":
		return ArchX86_64
	case "arm64":
		return ArchARM64
	case "arm":
		return ArchARM32
	default:
		return goarch
	}
}

// Bits returns "64" or "32", the value substituted for ${arch} in native
// classifier templates.
func (p Platform) Bits() string {
	switch p.Arch {
	case ArchX86, ArchARM32:
		return "32"
	default:
		return "64"
	}
}

// ClasspathSeparator returns the separator for Java classpath entries.
func (p Platform) ClasspathSeparator() string {
	if p.OS == OSWindows {
		return ";"
	}
	return ":"
}

// String returns "os/arch".
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}
