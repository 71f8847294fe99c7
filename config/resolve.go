package config

import (
	"cmp"
	"fmt"

	"github.com/rbuild/rbuild/model"
)

// Built-in defaults for fields neither the command line nor a profile set.
const (
	DefaultSSHPort      uint16 = 22
	DefaultEnvProfile          = "/etc/profile"
	DefaultBuildCommand        = "nix-shell"
)

// Resolve merges the overrides with the named profile, or with the only
// profile when no name is given. Overrides win over profile values, which
// win over built-in defaults. A nil store behaves like an empty one.
func Resolve(o model.RemoteOverrides, s *Store) (model.ResolvedRemote, error) {
	if s == nil {
		s = NewStore()
	}

	var (
		base  model.RemoteProfile
		found bool
	)
	if o.Name != "" {
		base, found = s.Lookup(o.Name)
	} else {
		base, found = s.Default()
	}

	r := model.ResolvedRemote{
		Host:         cmp.Or(o.Host, base.Host),
		SSHPort:      cmp.Or(o.SSHPort, base.SSHPort, DefaultSSHPort),
		TempDir:      cmp.Or(o.TempDir, base.TempDir),
		EnvProfile:   cmp.Or(o.EnvProfile, base.EnvProfile, DefaultEnvProfile),
		BuildCommand: cmp.Or(o.BuildCommand, base.BuildCommand, DefaultBuildCommand),
		IdentityFile: cmp.Or(o.IdentityFile, base.IdentityFile),
		SSHOptions:   base.SSHOptions,
		Multiplex:    base.Multiplex,
	}

	if r.Host == "" {
		switch {
		case o.Name != "" && !found:
			return model.ResolvedRemote{}, fmt.Errorf("%w: remote %q not found", ErrNoRemote, o.Name)
		case o.Name == "" && len(s.profiles) > 1:
			return model.ResolvedRemote{}, fmt.Errorf("%w: %d remotes configured, select one with --remote", ErrNoRemote, len(s.profiles))
		default:
			return model.ResolvedRemote{}, ErrNoRemote
		}
	}
	if r.TempDir == "" {
		return model.ResolvedRemote{}, fmt.Errorf("%w: no temp dir configured for host %q", ErrNoRemote, r.Host)
	}

	return r, nil
}
