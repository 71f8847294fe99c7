package config

import (
	"errors"
	"fmt"
)

// ErrNoRemote is returned by Resolve when no usable build server remains
// after merging the command line with the configuration.
var ErrNoRemote = errors.New("no remote build server was defined (use a config file or the --remote flags)")

// LoadError reports a configuration source that exists but could not be read
// or decoded, or a required source that does not exist.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
