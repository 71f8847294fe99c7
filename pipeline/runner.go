package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"al.essio.dev/pkg/shellescape"
)

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string
}

// String returns the command as it would be typed into a shell.
func (c Command) String() string {
	return shellescape.QuoteCommand(append([]string{c.Name}, c.Args...))
}

// Runner starts external processes and waits for them.
//
// Run returns the exit code of a process that ran to completion, including
// non-zero codes. The error is reserved for launch-level failures: the
// process could not be started or did not exit normally.
type Runner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner runs commands with os/exec, attaching the given streams
// directly to the child so interactive prompts reach the operator.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner attached to the streams of this process.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ExecRunner) Run(ctx context.Context, c Command) (int, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ExitCode is -1 when the process was terminated by a signal
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return -1, fmt.Errorf("%s terminated: %w", c.Name, err)
	}
	return -1, fmt.Errorf("failed to run %s: %w", c.Name, err)
}
