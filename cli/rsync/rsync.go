package rsync

// rsync.go contains utilities for building rsync commands.

// ProgressFlag reports overall transfer progress instead of one line per file.
const ProgressFlag = "--info=progress2"

// HiddenPattern matches files and directories whose name starts with a dot.
const HiddenPattern = ".*"

// Options contains options for an archive-mode rsync transfer.
type Options struct {
	Shell       string   // Remote shell command (-e)
	Delete      bool     // Delete destination files missing at the source
	Excludes    []string // Exclude patterns, in order
	RsyncPath   string   // Program started on the remote side (--rsync-path)
	Source      string   // Transfer source
	Destination string   // Transfer destination
}

// BuildArgs builds rsync command arguments. Transfers always use archive
// mode and compression.
func BuildArgs(opts Options) []string {
	args := []string{"-a"}

	if opts.Delete {
		args = append(args, "--delete")
	}
	args = append(args, "--compress")

	if opts.Shell != "" {
		args = append(args, "-e", opts.Shell)
	}
	args = append(args, ProgressFlag)

	for _, pattern := range opts.Excludes {
		args = append(args, "--exclude", pattern)
	}

	if opts.RsyncPath != "" {
		args = append(args, "--rsync-path", opts.RsyncPath)
	}

	return append(args, opts.Source, opts.Destination)
}
