// Package platform holds path helpers shared by discovery, the trash
// relocator and the sweeper.
package platform

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrEmptyPath is returned by NormalizePath for an empty argument
var ErrEmptyPath = errors.New("path is empty")

// NormalizePath returns the cleaned absolute form of path
func NormalizePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	return filepath.Abs(path)
}

// IsWithin reports whether path equals root or lies below it.
// Both paths are compared in cleaned form.
func IsWithin(root, path string) bool {
	if root == "" {
		return false
	}
	_, ok := relative(root, path)
	return ok
}

// RelWithin returns path relative to root when path lies strictly below
// root
func RelWithin(root, path string) (string, bool) {
	if root == "" {
		return "", false
	}
	rel, ok := relative(root, path)
	if !ok || rel == "." {
		return "", false
	}
	return rel, true
}

// Components splits a relative path into its elements
func Components(rel string) []string {
	rel = filepath.Clean(rel)
	if rel == "." || rel == "" {
		return nil
	}
	return strings.Split(rel, string(filepath.Separator))
}

func relative(root, path string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
