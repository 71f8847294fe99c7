package pipeline

import "fmt"

// Stage is one step of a remote build.
type Stage uint8

const (
	StagePush Stage = iota
	StageRemoteExecute
	StagePullArtifact
	StagePullLock
)

func (s Stage) String() string {
	switch s {
	case StagePush:
		return "push"
	case StageRemoteExecute:
		return "remote-execute"
	case StagePullArtifact:
		return "pull-artifact"
	case StagePullLock:
		return "pull-lock"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// StageError reports a stage that could not be launched or completed. It
// aborts the pipeline.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
