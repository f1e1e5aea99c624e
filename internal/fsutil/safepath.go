// Package fsutil confines blob paths to the storage root.
package fsutil

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrPathTraversal = errors.New("path escapes root")
	errEmptyPath     = errors.New("path is required")
)

// CleanRoot makes root absolute and clean.
func CleanRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errors.New("root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// WithinRoot resolves p against root (relative paths are joined to it) and
// fails with ErrPathTraversal when the result lies outside root. The check is
// purely lexical, so it also serves in-memory filesystems.
func WithinRoot(root, p string) (string, error) {
	if p == "" {
		return "", errEmptyPath
	}
	resolved := p
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(root, resolved)
	}
	resolved = filepath.Clean(resolved)
	if !IsWithin(root, resolved) {
		return "", ErrPathTraversal
	}
	return resolved, nil
}

// IsWithin reports whether candidate equals root or sits below it.
func IsWithin(root, candidate string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(candidate))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
