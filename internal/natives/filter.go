// SPDX-License-Identifier: MPL-2.0

package natives

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

type (
	// entryFilter decides which archive entries are extracted.
	entryFilter struct {
		include []matcher
		exclude []matcher
	}

	matcher func(name string) bool
)

// newEntryFilter compiles a library's extract rules. A pattern ending in "/"
// or without glob metacharacters matches that entry and everything below it.
func newEntryFilter(rules *manifest.ExtractRules) (*entryFilter, error) {
	f := &entryFilter{}
	if rules == nil {
		return f, nil
	}
	var err error
	if f.include, err = compileAll(rules.Include); err != nil {
		return nil, err
	}
	if f.exclude, err = compileAll(rules.Exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func compileAll(patterns []string) ([]matcher, error) {
	out := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func compile(pattern string) (matcher, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		prefix := strings.TrimSuffix(pattern, "/")
		return func(name string) bool {
			return name == prefix || strings.HasPrefix(name, prefix+"/")
		}, nil
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("extract pattern %q: %w", pattern, err)
	}
	return g.Match, nil
}

// allows reports whether name should be extracted.
func (f *entryFilter) allows(name string) bool {
	if len(f.include) > 0 && !anyMatch(f.include, name) {
		return false
	}
	return !anyMatch(f.exclude, name)
}

func anyMatch(ms []matcher, name string) bool {
	for _, m := range ms {
		if m(name) {
			return true
		}
	}
	return false
}
