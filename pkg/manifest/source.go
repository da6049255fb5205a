// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type (
	// DirSource reads versions/<id>/<id>.json under a game root.
	DirSource struct {
		Root string
	}

	// ChainSource tries each source in order. ErrVersionNotFound falls
	// through to the next source; any other error stops the search.
	ChainSource []Source
)

// VersionPath returns the descriptor path for id under root.
func VersionPath(root, id string) string {
	return filepath.Join(root, "versions", id, id+".json")
}

// VersionJarPath returns the client jar path for id under root.
func VersionJarPath(root, id string) string {
	return filepath.Join(root, "versions", id, id+".jar")
}

// Fetch implements Source.
func (d DirSource) Fetch(ctx context.Context, id string) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, &NotFoundError{ID: id}
	}

	data, err := os.ReadFile(VersionPath(d.Root, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("reading version %s: %w", id, err)
	}
	return Decode(id, data)
}

// Installed lists the ids with a descriptor under Root, in directory order.
func (d DirSource) Installed() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.Root, "versions"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(VersionPath(d.Root, e.Name())); err == nil {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Fetch implements Source.
func (c ChainSource) Fetch(ctx context.Context, id string) (*Version, error) {
	for _, src := range c {
		v, err := src.Fetch(ctx, id)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrVersionNotFound) {
			return nil, err
		}
	}
	return nil, &NotFoundError{ID: id}
}

// Decode parses a descriptor. A descriptor without an id takes the given one.
func Decode(id string, data []byte) (*Version, error) {
	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding version %s: %w", id, err)
	}
	if v.ID == "" {
		v.ID = id
	}
	return &v, nil
}

// Encode serializes a descriptor with two-space indentation.
func Encode(v *Version) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding version %s: %w", v.ID, err)
	}
	return append(data, '\n'), nil
}
