package config

// Package config loads named build server profiles from layered
// configuration files and merges them with command line overrides.
//
// Scopes are applied least specific first:
//   - global:   $XDG_CONFIG_HOME/rbuild/config.{toml,yaml,yml}
//   - project:  <project root>/.rbuild.{toml,yaml,yml}
//   - explicit: the file given with --config
//
// A profile in a more specific scope replaces a profile with the same name
// from a less specific one.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"github.com/rbuild/rbuild/model"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const appName = "rbuild"

// Supported file extensions, in lookup order.
var extensions = []string{".toml", ".yaml", ".yml"}

// File is the on-disk layout of one configuration source.
type File struct {
	// Build output directory relative to the project root
	ArtifactDir string `toml:"artifact_dir,omitempty" yaml:"artifact_dir,omitempty"`
	// Lock file relative to the project root
	LockFile string `toml:"lock_file,omitempty" yaml:"lock_file,omitempty"`
	// Build servers, [[remote]] tables in TOML and a remotes list in YAML
	Remotes []model.RemoteProfile `toml:"remote" yaml:"remotes"`
}

// Scope is one configuration source. The first existing file of Paths is used.
type Scope struct {
	Name     string
	Paths    []string
	Required bool
}

// GlobalScope returns the per-user scope below configDir. An empty configDir
// selects $XDG_CONFIG_HOME/rbuild.
func GlobalScope(configDir string) Scope {
	if configDir == "" {
		configDir = filepath.Join(xdg.ConfigHome, appName)
	}
	return Scope{
		Name:  "global",
		Paths: withExtensions(filepath.Join(configDir, "config")),
	}
}

// ProjectScope returns the scope stored in the project root.
func ProjectScope(projectRoot string) Scope {
	return Scope{
		Name:  "project",
		Paths: withExtensions(filepath.Join(projectRoot, "."+appName)),
	}
}

// ExplicitScope returns a scope for a file named on the command line. The
// file must exist.
func ExplicitScope(path string) Scope {
	return Scope{
		Name:     "explicit",
		Paths:    []string{path},
		Required: true,
	}
}

func withExtensions(base string) []string {
	paths := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		paths = append(paths, base+ext)
	}
	return paths
}

// Store holds the merged profiles of all loaded scopes.
type Store struct {
	profiles map[string]model.RemoteProfile
	layout   model.Layout
	sources  []string
}

// NewStore returns a store holding the given profiles, as if they were read
// from a single scope.
func NewStore(profiles ...model.RemoteProfile) *Store {
	s := &Store{
		profiles: make(map[string]model.RemoteProfile, len(profiles)),
		layout:   model.DefaultLayout(),
	}
	for _, p := range profiles {
		s.profiles[p.Name] = p
	}
	return s
}

// Load reads the scopes in order. Missing optional scopes are skipped.
func Load(logger zerolog.Logger, scopes ...Scope) (*Store, error) {
	s := NewStore()

	for _, scope := range scopes {
		path, ok := findFile(scope.Paths)
		if !ok {
			if scope.Required {
				return nil, &LoadError{Path: strings.Join(scope.Paths, ", "), Err: os.ErrNotExist}
			}
			logger.Debug().Str("scope", scope.Name).Strs("paths", scope.Paths).Msg("No config file found")
			continue
		}

		f, err := readFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		logger.Debug().
			Str("scope", scope.Name).
			Str("path", path).
			Int("remotes", len(f.Remotes)).
			Msg("Loaded config file")

		s.merge(f)
		s.sources = append(s.sources, path)
	}

	return s, nil
}

func findFile(paths []string) (string, bool) {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

func (s *Store) merge(f *File) {
	if f.ArtifactDir != "" {
		s.layout.ArtifactDir = f.ArtifactDir
	}
	if f.LockFile != "" {
		s.layout.LockFile = f.LockFile
	}
	for _, p := range f.Remotes {
		s.profiles[p.Name] = p
	}
}

// readFile decodes a configuration file, selecting the format by extension.
// Files without a known extension are decoded as TOML.
func readFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("invalid toml: %w", err)
		}
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	seen := make(map[string]bool, len(f.Remotes))
	for i, p := range f.Remotes {
		if p.Name == "" {
			return fmt.Errorf("remote #%d has no name", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("remote %q is defined more than once", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Lookup returns the profile with the given name.
func (s *Store) Lookup(name string) (model.RemoteProfile, bool) {
	p, ok := s.profiles[name]
	return p, ok
}

// Default returns the only profile when exactly one is defined.
func (s *Store) Default() (model.RemoteProfile, bool) {
	if len(s.profiles) != 1 {
		return model.RemoteProfile{}, false
	}
	for _, p := range s.profiles {
		return p, true
	}
	return model.RemoteProfile{}, false
}

// Names returns the sorted profile names.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layout returns the project layout after all scopes were applied.
func (s *Store) Layout() model.Layout {
	return s.layout
}

// Sources returns the files that were loaded, least specific first.
func (s *Store) Sources() []string {
	return s.sources
}
