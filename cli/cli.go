package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rbuild/rbuild/cli/ssh"
	"github.com/rbuild/rbuild/exitcode"
	"github.com/rbuild/rbuild/pipeline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "rbuild"

type App struct {
	logger    zerolog.Logger
	cli       *cli.App
	runner    pipeline.Runner
	configDir string
	sshOpts   []ssh.SSHOption

	// exit status of the last remote build
	status int
}

// Option configures an App.
type Option func(*App)

// WithRunner replaces the runner that starts rsync and ssh.
func WithRunner(r pipeline.Runner) Option {
	return func(a *App) {
		a.runner = r
	}
}

// WithConfigDir replaces the per-user configuration directory.
func WithConfigDir(dir string) Option {
	return func(a *App) {
		a.configDir = dir
	}
}

// WithLogger replaces the console logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithSSHOptions adds options applied to every ssh client.
func WithSSHOptions(opts ...ssh.SSHOption) Option {
	return func(a *App) {
		a.sshOpts = append(a.sshOpts, opts...)
	}
}

func New(opts ...Option) *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		runner: pipeline.NewExecRunner(),
		cli: &cli.App{
			Name:  AppName,
			Usage: "Build a local project on a remote machine over ssh",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
			// Exit codes are decided by Run, never by the flag library.
			ExitErrHandler: func(*cli.Context, error) {},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:  "remote",
		Usage: "Push the project, build it on the build server and copy results back",
		Description: `Transfers the project to <temp-dir>/<hash>/ on the build server, sources
the environment profile there and runs the build command.

The remote is taken from the command line flags, the named --remote profile,
or the only profile when exactly one is configured. Profiles are read from
$XDG_CONFIG_HOME/rbuild/config.toml, <project>/.rbuild.toml and --config.

Exit codes:
  0     success
  N     the remote build command exited with N
  -1    other error (e.g. invalid usage)
  -2    project not found
  -3    configuration error
  4     no remote build server defined
  -4    transfer to the build server failed
  -5    ssh session to the build server failed
  -6    copying artifacts back failed
  -7    copying the lock file back failed`,
		Action: app.remote,
		Flags:  remoteFlags(),
	})

	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run executes the command line and returns the process exit code.
func (a *App) Run(args []string) int {
	a.status = 0

	err := a.cli.Run(normalizeCopyBack(args))
	if err != nil {
		code := exitcode.For(err)

		// Stage failures were already logged by the pipeline
		var stageErr *pipeline.StageError
		if !errors.As(err, &stageErr) {
			a.logger.Error().Err(err).Int("exit_code", code).Msg("Remote build aborted")
		}
		return code
	}
	return a.status
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		if len(commit) > 8 {
			commit = commit[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
}
