// SPDX-License-Identifier: MPL-2.0

package mods

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRange is returned for Maven version ranges that do not parse.
var ErrInvalidRange = errors.New("invalid version range")

// mavenRange converts a Maven version range to a constraint string.
// "[1.0,2.0)" becomes ">=1.0, <2.0", a bare "1.0" is a minimum, and the
// sets of a union are joined with "||".
func mavenRange(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return "", nil
	}
	if s[0] != '[' && s[0] != '(' {
		return ">=" + s, nil
	}

	var sets []string
	for rest := s; rest != ""; {
		end := strings.IndexAny(rest, "])")
		if end < 0 || (rest[0] != '[' && rest[0] != '(') {
			return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
		}
		set, err := mavenSet(rest[:end+1])
		if err != nil {
			return "", fmt.Errorf("%w: %q", err, s)
		}
		if set == "" {
			return "", nil
		}
		sets = append(sets, set)

		rest = strings.TrimSpace(rest[end+1:])
		if rest != "" {
			if rest[0] != ',' {
				return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
			}
			rest = strings.TrimSpace(rest[1:])
		}
	}
	return strings.Join(sets, " || "), nil
}

// mavenSet converts one bracketed set. An unbounded set returns "".
func mavenSet(set string) (string, error) {
	open, closing := set[0], set[len(set)-1]
	inner := set[1 : len(set)-1]

	lo, hi, isRange := strings.Cut(inner, ",")
	if !isRange {
		v := strings.TrimSpace(inner)
		if v == "" || open != '[' || closing != ']' {
			return "", ErrInvalidRange
		}
		return "=" + v, nil
	}
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)

	var bounds []string
	if lo != "" {
		if open == '[' {
			bounds = append(bounds, ">="+lo)
		} else {
			bounds = append(bounds, ">"+lo)
		}
	}
	if hi != "" {
		if closing == ']' {
			bounds = append(bounds, "<="+hi)
		} else {
			bounds = append(bounds, "<"+hi)
		}
	}
	return strings.Join(bounds, ", "), nil
}
