// SPDX-License-Identifier: MPL-2.0

package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/blocklaunch/blocklaunch/pkg/fspath"
)

// storeVersion is the record layout written by FileStore.
const storeVersion = 1

type (
	// Store persists the current session as a single record.
	Store interface {
		// Load returns the stored session, or nil when none is stored.
		Load() (*Session, error)
		// Save replaces the stored session.
		Save(s *Session) error
		// Clear removes the stored session.
		Clear() error
	}

	// FileStore keeps the session in a TOML file, replaced atomically on
	// every write.
	FileStore struct {
		Path string
	}

	sessionRecord struct {
		Version int      `toml:"version"`
		Session *Session `toml:"session"`
	}
)

// Load implements Store.
func (f FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Path, err)
	}

	var rec sessionRecord
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, f.Path, err)
	}
	if rec.Session == nil {
		return nil, nil
	}
	if rec.Version != storeVersion || !rec.Session.valid() {
		return nil, fmt.Errorf("%w: %s: unusable record", ErrCorruptStore, f.Path)
	}
	return rec.Session, nil
}

// Save implements Store. The file is readable by its owner only.
func (f FileStore) Save(s *Session) error {
	data, err := toml.Marshal(sessionRecord{Version: storeVersion, Session: s})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := fspath.WriteFileAtomic(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", f.Path, err)
	}
	return nil
}

// Clear implements Store.
func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", f.Path, err)
	}
	return nil
}
