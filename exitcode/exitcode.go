package exitcode

// Package exitcode maps failures of a remote build to stable process exit
// codes, so scripts can tell configuration, connectivity, transfer and build
// failures apart.

import (
	"errors"

	"github.com/rbuild/rbuild/config"
	"github.com/rbuild/rbuild/pipeline"
	"github.com/rbuild/rbuild/project"
)

// Exit codes returned by rbuild. A failed remote build exits with the
// remote command's own status instead.
const (
	// Success indicates the remote build ran and succeeded.
	Success = 0

	// Failure indicates an error not covered by a more specific code,
	// such as invalid command line usage.
	Failure = -1

	// ProjectNotFound indicates the manifest path does not lead to a project.
	ProjectNotFound = -2

	// ConfigError indicates a configuration file could not be loaded or parsed.
	ConfigError = -3

	// NoRemote indicates no build server could be resolved.
	NoRemote = 4

	// PushFailed indicates the sources could not be transferred.
	PushFailed = -4

	// SessionFailed indicates the remote build session could not be established.
	SessionFailed = -5

	// ArtifactPullFailed indicates the artifacts could not be transferred back.
	ArtifactPullFailed = -6

	// LockPullFailed indicates the lock file could not be transferred back.
	LockPullFailed = -7
)

// ForStage returns the exit code of a failed pipeline stage.
func ForStage(stage pipeline.Stage) int {
	switch stage {
	case pipeline.StagePush:
		return PushFailed
	case pipeline.StageRemoteExecute:
		return SessionFailed
	case pipeline.StagePullArtifact:
		return ArtifactPullFailed
	case pipeline.StagePullLock:
		return LockPullFailed
	default:
		return Failure
	}
}

// For returns the exit code for err, Success when err is nil.
func For(err error) int {
	if err == nil {
		return Success
	}

	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return ForStage(stageErr.Stage)
	}

	var loadErr *config.LoadError
	switch {
	case errors.As(err, &loadErr):
		return ConfigError
	case errors.Is(err, config.ErrNoRemote):
		return NoRemote
	case errors.Is(err, project.ErrNotFound):
		return ProjectNotFound
	default:
		return Failure
	}
}

// Final combines the pipeline outcome into the process exit code: the
// mapped code of err if there is one, the remote build status otherwise.
func Final(remoteStatus int, err error) int {
	if err != nil {
		return For(err)
	}
	return remoteStatus
}
