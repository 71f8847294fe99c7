package cli

// This file contains the remote command: it resolves the build server,
// derives the remote build path and runs the build pipeline.

import (
	"fmt"
	"math"
	"strings"

	"github.com/rbuild/rbuild/buildpath"
	"github.com/rbuild/rbuild/config"
	"github.com/rbuild/rbuild/model"
	"github.com/rbuild/rbuild/pipeline"
	"github.com/rbuild/rbuild/project"
	"github.com/urfave/cli/v2"
)

const defaultManifest = "Cargo.toml"

func remoteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "remote",
			Aliases: []string{"r"},
			Usage:   "The name of the remote specified in the config",
		},
		&cli.StringFlag{
			Name:    "remote-host",
			Aliases: []string{"H"},
			Usage:   "Remote ssh build server with user or the name of the ssh entry",
		},
		&cli.UintFlag{
			Name:    "remote-ssh-port",
			Aliases: []string{"p"},
			Usage:   "The ssh port to communicate with the build server (default: 22)",
		},
		&cli.StringFlag{
			Name:    "remote-temp-dir",
			Aliases: []string{"t"},
			Usage:   "The directory on the build server below which the project is built",
		},
		&cli.StringFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Environment profile sourced before the build (default: " + config.DefaultEnvProfile + ")",
		},
		&cli.StringFlag{
			Name:  "build-command",
			Usage: "Command run in the build path (default: " + config.DefaultBuildCommand + ")",
		},
		&cli.StringFlag{
			Name:    "identity-file",
			Aliases: []string{"i"},
			Usage:   "Private key used for ssh and rsync",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Additional config file, overriding the global and project config",
		},
		&cli.StringFlag{
			Name:    "copy-back",
			Aliases: []string{"c"},
			Usage:   "Transfer the artifact folder, or the named file from that folder, back to the local machine",
		},
		&cli.BoolFlag{
			Name:  "no-copy-lock",
			Usage: "Don't transfer the lock file back to the local machine",
		},
		&cli.StringFlag{
			Name:  "manifest-path",
			Usage: "Path to the project manifest",
			Value: defaultManifest,
		},
		&cli.BoolFlag{
			Name:  "transfer-hidden",
			Usage: "Transfer hidden files and directories to the build server",
		},
	}
}

func (a *App) remote(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(ctx.Args().Slice(), " "))
	}

	port := ctx.Uint("remote-ssh-port")
	if port > math.MaxUint16 {
		return fmt.Errorf("invalid ssh port %d", port)
	}

	projectRoot, err := project.Locate(ctx.String("manifest-path"))
	if err != nil {
		return err
	}
	a.logger.Info().Str("project_dir", projectRoot).Msg("Located project")

	scopes := []config.Scope{
		config.GlobalScope(a.configDir),
		config.ProjectScope(projectRoot),
	}
	if path := ctx.String("config"); path != "" {
		scopes = append(scopes, config.ExplicitScope(path))
	}

	store, err := config.Load(a.logger, scopes...)
	if err != nil {
		return err
	}

	overrides := model.RemoteOverrides{
		Name:         ctx.String("remote"),
		Host:         ctx.String("remote-host"),
		SSHPort:      uint16(port),
		TempDir:      ctx.String("remote-temp-dir"),
		EnvProfile:   ctx.String("env"),
		BuildCommand: ctx.String("build-command"),
		IdentityFile: ctx.String("identity-file"),
	}
	if overrides.Name != "" && overrides.Host != "" {
		if _, ok := store.Lookup(overrides.Name); !ok {
			a.logger.Warn().
				Str("remote", overrides.Name).
				Strs("available", store.Names()).
				Msg("Remote not found in config, using command line settings")
		}
	}

	remote, err := config.Resolve(overrides, store)
	if err != nil {
		return err
	}

	bc := model.BuildContext{
		ProjectRoot:    projectRoot,
		Remote:         remote,
		BuildPath:      buildpath.Derive(projectRoot, remote.TempDir),
		Layout:         store.Layout(),
		TransferHidden: ctx.Bool("transfer-hidden"),
		SkipLockCopy:   ctx.Bool("no-copy-lock"),
	}
	if ctx.IsSet("copy-back") {
		bc.CopyBack = model.CopyArtifact(ctx.String("copy-back"))
	}

	a.logger.Info().
		Str("host", remote.Host).
		Uint16("port", remote.SSHPort).
		Str("env_profile", remote.EnvProfile).
		Str("build_path", bc.BuildPath).
		Str("copy_back", bc.CopyBack.Mode.String()).
		Msg("Resolved remote")

	status, err := pipeline.New(a.logger, a.runner, pipeline.WithSSHOptions(a.sshOpts...)).Run(ctx.Context, bc)
	if err != nil {
		return err
	}
	a.status = status
	return nil
}
