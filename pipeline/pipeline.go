package pipeline

// Package pipeline runs one remote build: push the sources, run the build
// on the build server, then optionally pull artifacts and the lock file back.
// Stages run strictly in order and the first stage that cannot be launched
// or completed aborts the run.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbuild/rbuild/cli/rsync"
	"github.com/rbuild/rbuild/cli/ssh"
	"github.com/rbuild/rbuild/model"
	"github.com/rs/zerolog"
)

// ssh exits with 255 when the connection itself fails.
const sshErrorStatus = 255

// ErrSessionFailed is returned when ssh could not establish the build session.
var ErrSessionFailed = errors.New("ssh session could not be established")

type step struct {
	stage   Stage
	message string
	cmd     Command
	prepare func() error
}

// Pipeline executes build contexts through a Runner.
type Pipeline struct {
	logger  zerolog.Logger
	runner  Runner
	sshOpts []ssh.SSHOption
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSSHOptions adds options applied to every ssh client the pipeline creates.
func WithSSHOptions(opts ...ssh.SSHOption) Option {
	return func(p *Pipeline) {
		p.sshOpts = append(p.sshOpts, opts...)
	}
}

// New returns a pipeline that starts its processes with runner.
func New(logger zerolog.Logger, runner Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: logger,
		runner: runner,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes all stages for bc. It returns the exit status of the remote
// build command, or a *StageError for the first stage that failed.
func (p *Pipeline) Run(ctx context.Context, bc model.BuildContext) (int, error) {
	logger := p.logger.With().
		Str("host", bc.Remote.Host).
		Uint16("port", bc.Remote.SSHPort).
		Str("build_path", bc.BuildPath).
		Logger()

	client, err := p.client(bc.Remote)
	if err != nil {
		return 0, p.fail(logger, StagePush, Command{}, err)
	}

	status := 0
	for _, s := range plan(bc, client) {
		logger.Info().Msg(s.message)

		if s.prepare != nil {
			if err := s.prepare(); err != nil {
				return 0, p.fail(logger, s.stage, s.cmd, err)
			}
		}

		logger.Debug().
			Str("stage", s.stage.String()).
			Str("command", s.cmd.String()).
			Msg("Executing")

		code, err := p.runner.Run(ctx, s.cmd)
		if err != nil {
			return 0, p.fail(logger, s.stage, s.cmd, err)
		}
		if code == 0 {
			continue
		}

		if s.stage == StageRemoteExecute {
			if code == sshErrorStatus {
				return 0, p.fail(logger, s.stage, s.cmd, fmt.Errorf("%w (exit status %d)", ErrSessionFailed, code))
			}
			// The build itself failed; its status becomes ours once the
			// pull-back stages are done.
			logger.Warn().Int("exit_code", code).Msg("Remote build failed")
			status = code
			continue
		}

		return 0, p.fail(logger, s.stage, s.cmd, fmt.Errorf("%s exited with status %d", s.cmd.Name, code))
	}

	if status == 0 {
		logger.Info().Msg("Remote build completed successfully")
	}
	return status, nil
}

func (p *Pipeline) fail(logger zerolog.Logger, stage Stage, cmd Command, err error) error {
	ev := logger.Error().Err(err).Str("stage", stage.String())
	if cmd.Name != "" {
		ev = ev.Str("command", cmd.String())
	}
	ev.Msg("Pipeline stage failed")
	return &StageError{Stage: stage, Err: err}
}

func (p *Pipeline) client(remote model.ResolvedRemote) (*ssh.Client, error) {
	var opts []ssh.SSHOption
	if remote.IdentityFile != "" {
		opts = append(opts, ssh.WithIdentityFile(remote.IdentityFile))
	}
	if len(remote.SSHOptions) > 0 {
		opts = append(opts, ssh.WithExtraOptions(remote.SSHOptions...))
	}
	if remote.Multiplex {
		opts = append(opts, ssh.WithMultiplexing())
	}
	opts = append(opts, p.sshOpts...)
	return ssh.New(p.logger, remote.Host, remote.SSHPort, opts...)
}

// plan returns the stages to run for bc, skipped stages omitted.
func plan(bc model.BuildContext, client *ssh.Client) []step {
	steps := []step{
		pushStep(bc, client),
		remoteExecuteStep(bc, client),
	}
	if bc.CopyBack.Enabled() {
		steps = append(steps, pullArtifactStep(bc, client))
	}
	if !bc.SkipLockCopy {
		steps = append(steps, pullLockStep(bc, client))
	}
	return steps
}

func pushStep(bc model.BuildContext, client *ssh.Client) step {
	excludes := []string{"/" + strings.Trim(bc.Layout.ArtifactDir, "/")}
	if !bc.TransferHidden {
		excludes = append(excludes, rsync.HiddenPattern)
	}

	return step{
		stage:   StagePush,
		message: "Transferring sources to build server",
		cmd: Command{
			Name: "rsync",
			Args: rsync.BuildArgs(rsync.Options{
				Shell:       client.RemoteShell(),
				Delete:      true,
				Excludes:    excludes,
				RsyncPath:   fmt.Sprintf("mkdir -p %s && rsync", ssh.QuotePath(bc.BuildPath)),
				Source:      strings.TrimRight(bc.ProjectRoot, "/") + "/",
				Destination: client.Target(bc.BuildPath),
			}),
		},
	}
}

// BuildCommand returns the shell command run on the build server.
func BuildCommand(bc model.BuildContext) string {
	return fmt.Sprintf(". %s; cd %s && %s",
		ssh.QuotePath(bc.Remote.EnvProfile),
		ssh.QuotePath(bc.BuildPath),
		bc.Remote.BuildCommand,
	)
}

func remoteExecuteStep(bc model.BuildContext, client *ssh.Client) step {
	return step{
		stage:   StageRemoteExecute,
		message: "Starting build process",
		cmd: Command{
			Name: "ssh",
			Args: client.SessionArgs(BuildCommand(bc)),
		},
	}
}

func pullArtifactStep(bc model.BuildContext, client *ssh.Client) step {
	artifactDir := strings.Trim(bc.Layout.ArtifactDir, "/")
	rel := bc.CopyBack.RelPath()
	local := filepath.Join(bc.ProjectRoot, artifactDir, rel)

	excludes := []string{}
	if !bc.TransferHidden {
		excludes = append(excludes, rsync.HiddenPattern)
	}

	source := client.Target(bc.BuildPath + artifactDir + "/" + rel)
	destination := local
	if rel == "" {
		destination += "/"
	}

	return step{
		stage:   StagePullArtifact,
		message: "Transferring artifacts back to client",
		cmd: Command{
			Name: "rsync",
			Args: rsync.BuildArgs(rsync.Options{
				Shell:       client.RemoteShell(),
				Delete:      true,
				Excludes:    excludes,
				Source:      source,
				Destination: destination,
			}),
		},
		prepare: func() error {
			if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
				return fmt.Errorf("failed to create local artifact directory: %w", err)
			}
			return nil
		},
	}
}

func pullLockStep(bc model.BuildContext, client *ssh.Client) step {
	return step{
		stage:   StagePullLock,
		message: fmt.Sprintf("Transferring %s back to client", bc.Layout.LockFile),
		cmd: Command{
			Name: "rsync",
			Args: rsync.BuildArgs(rsync.Options{
				Shell:       client.RemoteShell(),
				Source:      client.Target(bc.BuildPath + bc.Layout.LockFile),
				Destination: filepath.Join(bc.ProjectRoot, bc.Layout.LockFile),
			}),
		},
	}
}
