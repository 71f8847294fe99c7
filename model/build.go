package model

// Default project layout, matching a Cargo project.
const (
	DefaultArtifactDir = "target"
	DefaultLockFile    = "Cargo.lock"
)

// Layout names the project-relative paths the pipeline transfers back.
type Layout struct {
	// Build output directory, never pushed and optionally copied back
	ArtifactDir string
	// Dependency lock file copied back after the build
	LockFile string
}

// DefaultLayout returns the layout used when no configuration sets one.
func DefaultLayout() Layout {
	return Layout{
		ArtifactDir: DefaultArtifactDir,
		LockFile:    DefaultLockFile,
	}
}

// CopyBackMode selects what is copied from the artifact directory after the build.
type CopyBackMode uint8

const (
	CopyNone CopyBackMode = iota
	CopyAll
	CopyNamed
)

// CopyBack is the artifact selection of one invocation.
type CopyBack struct {
	Mode CopyBackMode
	// Artifact name relative to the artifact directory, only set for CopyNamed
	Name string
}

// CopyArtifact returns the selection for a --copy-back flag that was given.
// An empty name selects the whole artifact directory.
func CopyArtifact(name string) CopyBack {
	if name == "" {
		return CopyBack{Mode: CopyAll}
	}
	return CopyBack{Mode: CopyNamed, Name: name}
}

// Enabled reports whether anything is copied back.
func (c CopyBack) Enabled() bool {
	return c.Mode != CopyNone
}

// RelPath returns the path below the artifact directory that is copied back.
// It is empty for CopyAll and CopyNone.
func (c CopyBack) RelPath() string {
	if c.Mode == CopyNamed {
		return c.Name
	}
	return ""
}

func (m CopyBackMode) String() string {
	switch m {
	case CopyNone:
		return "none"
	case CopyAll:
		return "all"
	case CopyNamed:
		return "named"
	default:
		return "unknown"
	}
}

// BuildContext describes one remote build. It is created once per invocation
// and passed by value to the pipeline.
type BuildContext struct {
	// Canonical local project root
	ProjectRoot string
	// Build server and connection settings
	Remote ResolvedRemote
	// Remote working directory, always ending in "/"
	BuildPath string
	// Project-relative artifact directory and lock file
	Layout Layout
	// Transfer files and directories starting with a dot
	TransferHidden bool
	// Artifacts to copy back after the build
	CopyBack CopyBack
	// Do not copy the lock file back
	SkipLockCopy bool
}
