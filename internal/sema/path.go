package sema

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PathSeparator separates segments of a definition path.
const PathSeparator = "::"

// NormalizePath returns the NFC normalization of a definition path.
//
// Paths come in from manifests and may contain non-ASCII identifiers
// in either composed or decomposed form. Everything downstream (def
// lookup, manifest hashing, node identity) assumes a single canonical
// form, so normalization happens exactly once at the boundary.
func NormalizePath(path string) string {
	return norm.NFC.String(path)
}

// ValidatePath checks that a definition path is well formed:
// non-empty, no empty segments, no surrounding whitespace.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if strings.TrimSpace(path) != path {
		return fmt.Errorf("path %q has surrounding whitespace", path)
	}
	for _, seg := range strings.Split(path, PathSeparator) {
		if seg == "" {
			return fmt.Errorf("path %q has an empty segment", path)
		}
	}
	return nil
}
