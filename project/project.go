package project

// Package project locates the local project root from a manifest path.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when the manifest or project directory does not exist.
var ErrNotFound = errors.New("project not found")

// Locate returns the canonical project root for the given manifest path.
// A manifest file resolves to its directory; a directory is used as is.
// Symlinks are resolved so that the same project always yields the same root.
func Locate(manifestPath string) (string, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve manifest path %q: %w", manifestPath, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: manifest %s does not exist", ErrNotFound, abs)
		}
		return "", fmt.Errorf("failed to resolve manifest path %q: %w", manifestPath, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if info.IsDir() {
		return resolved, nil
	}
	return filepath.Dir(resolved), nil
}
