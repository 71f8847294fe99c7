package model

// RemoteProfile is a named build server as stored in a configuration file.
type RemoteProfile struct {
	// Name identifying the profile, unique within one configuration file
	Name string `toml:"name" yaml:"name"`
	// SSH destination, either "user@host" or the name of an ssh_config entry
	Host string `toml:"host" yaml:"host"`
	// SSH port of the build server (0 means not configured)
	SSHPort uint16 `toml:"ssh_port" yaml:"ssh_port"`
	// Directory on the build server under which project build paths are created
	TempDir string `toml:"temp_dir" yaml:"temp_dir"`
	// Shell profile sourced before the build is started
	EnvProfile string `toml:"env_profile" yaml:"env_profile"`
	// Command run inside the build path
	BuildCommand string `toml:"build_command,omitempty" yaml:"build_command,omitempty"`
	// Private key passed to ssh with -i
	IdentityFile string `toml:"identity_file,omitempty" yaml:"identity_file,omitempty"`
	// Extra ssh options, each passed with -o (e.g. "StrictHostKeyChecking=no")
	SSHOptions []string `toml:"ssh_options,omitempty" yaml:"ssh_options,omitempty"`
	// Share one ssh connection between all transfers and the build session
	Multiplex bool `toml:"multiplex,omitempty" yaml:"multiplex,omitempty"`
}

// RemoteOverrides holds values given on the command line. A zero field means
// the value was not given and the profile or built-in default applies.
type RemoteOverrides struct {
	Name         string
	Host         string
	SSHPort      uint16
	TempDir      string
	EnvProfile   string
	BuildCommand string
	IdentityFile string
}

// ResolvedRemote is the fully merged build server used for one invocation.
type ResolvedRemote struct {
	Host         string
	SSHPort      uint16
	TempDir      string
	EnvProfile   string
	BuildCommand string
	IdentityFile string
	SSHOptions   []string
	Multiplex    bool
}
