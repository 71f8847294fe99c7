package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rbuild/rbuild/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".rbuild.toml"), `
artifact_dir = "out"

[[remote]]
name = "ci"
host = "build.example.com"
ssh_port = 2222
temp_dir = "/tmp/builds"
env_profile = "/etc/profile"
ssh_options = ["StrictHostKeyChecking=no"]
multiplex = true
`)

	s, err := Load(zerolog.Nop(), ProjectScope(dir))
	require.NoError(t, err)

	p, ok := s.Lookup("ci")
	require.True(t, ok)
	require.Equal(t, model.RemoteProfile{
		Name:       "ci",
		Host:       "build.example.com",
		SSHPort:    2222,
		TempDir:    "/tmp/builds",
		EnvProfile: "/etc/profile",
		SSHOptions: []string{"StrictHostKeyChecking=no"},
		Multiplex:  true,
	}, p)
	require.Equal(t, model.Layout{ArtifactDir: "out", LockFile: "Cargo.lock"}, s.Layout())
	require.Equal(t, []string{filepath.Join(dir, ".rbuild.toml")}, s.Sources())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
lock_file: go.sum
remotes:
  - name: a
    host: a.example.com
    temp_dir: /srv/a
  - name: b
    host: b.example.com
    temp_dir: /srv/b
`)

	s, err := Load(zerolog.Nop(), GlobalScope(dir))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, s.Names())
	require.Equal(t, "go.sum", s.Layout().LockFile)

	_, ok := s.Default()
	require.False(t, ok, "two remotes have no default")
}

func TestLoad_EmptyYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yml"), "")

	s, err := Load(zerolog.Nop(), GlobalScope(dir))
	require.NoError(t, err)
	require.Empty(t, s.Names())
}

func TestLoad_ProjectScopeWins(t *testing.T) {
	global := t.TempDir()
	project := t.TempDir()
	writeFile(t, filepath.Join(global, "config.toml"), `
[[remote]]
name = "ci"
host = "global.example.com"
temp_dir = "/global"

[[remote]]
name = "other"
host = "other.example.com"
temp_dir = "/other"
`)
	writeFile(t, filepath.Join(project, ".rbuild.yaml"), `
remotes:
  - name: ci
    host: project.example.com
    temp_dir: /project
`)

	// Scope order decides, not the order in which files happen to be listed.
	s, err := Load(zerolog.Nop(), GlobalScope(global), ProjectScope(project))
	require.NoError(t, err)

	p, ok := s.Lookup("ci")
	require.True(t, ok)
	require.Equal(t, "project.example.com", p.Host)
	require.Equal(t, "/project", p.TempDir)

	p, ok = s.Lookup("other")
	require.True(t, ok)
	require.Equal(t, "other.example.com", p.Host)
}

func TestLoad_MissingOptionalScope(t *testing.T) {
	s, err := Load(zerolog.Nop(), GlobalScope(t.TempDir()), ProjectScope(t.TempDir()))
	require.NoError(t, err)
	require.Empty(t, s.Names())
	require.Empty(t, s.Sources())
	require.Equal(t, model.DefaultLayout(), s.Layout())
}

func TestLoad_MissingExplicitScope(t *testing.T) {
	_, err := Load(zerolog.Nop(), ExplicitScope(filepath.Join(t.TempDir(), "nope.toml")))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "toml syntax",
			file:    ".rbuild.toml",
			content: "[[remote]\nname = ",
		},
		{
			name:    "toml unknown key",
			file:    ".rbuild.toml",
			content: "[[remote]]\nname = \"a\"\nhostname = \"x\"\n",
		},
		{
			name:    "yaml unknown key",
			file:    ".rbuild.yaml",
			content: "remotes:\n  - name: a\n    port: 22\n",
		},
		{
			name:    "missing name",
			file:    ".rbuild.toml",
			content: "[[remote]]\nhost = \"x\"\n",
		},
		{
			name:    "duplicate name",
			file:    ".rbuild.toml",
			content: "[[remote]]\nname = \"a\"\n[[remote]]\nname = \"a\"\n",
		},
		{
			name:    "port out of range",
			file:    ".rbuild.toml",
			content: "[[remote]]\nname = \"a\"\nssh_port = 70000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)

			_, err := Load(zerolog.Nop(), ProjectScope(dir))
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			require.Equal(t, path, loadErr.Path)
		})
	}
}

func TestLoad_FirstCandidateWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".rbuild.toml"), "[[remote]]\nname = \"toml\"\n")
	writeFile(t, filepath.Join(dir, ".rbuild.yaml"), "remotes:\n  - name: yaml\n")

	s, err := Load(zerolog.Nop(), ProjectScope(dir))
	require.NoError(t, err)
	require.Equal(t, []string{"toml"}, s.Names())
}

func TestStore_Default(t *testing.T) {
	_, ok := NewStore().Default()
	require.False(t, ok)

	p, ok := NewStore(model.RemoteProfile{Name: "only", Host: "h"}).Default()
	require.True(t, ok)
	require.Equal(t, "only", p.Name)
}
