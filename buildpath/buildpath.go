package buildpath

// Package buildpath derives the remote working directory of a project.
//
// The directory name is the 64-bit xxHash of the canonical project root, so
// the same project always lands in the same remote directory and incremental
// build caches on the build server are reused between runs.

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hash returns the stable identifier of a project root as 16 hex digits.
func Hash(projectRoot string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(filepath.Clean(projectRoot)))
}

// Derive returns "<tempDir>/<hash>/" for the given project root.
func Derive(projectRoot, tempDir string) string {
	return fmt.Sprintf("%s/%s/", strings.TrimRight(tempDir, "/"), Hash(projectRoot))
}
