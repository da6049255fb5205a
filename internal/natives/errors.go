// SPDX-License-Identifier: MPL-2.0

package natives

import (
	"errors"
	"fmt"
)

// ErrCorruptArchive is the sentinel wrapped by ArchiveError.
var ErrCorruptArchive = errors.New("corrupt native archive")

// ArchiveError reports a native archive that could not be read or extracted.
type ArchiveError struct {
	Library string
	Path    string
	Err     error
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	return fmt.Sprintf("natives for %s (%s): %v", e.Library, e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ArchiveError) Unwrap() []error { return []error{ErrCorruptArchive, e.Err} }
