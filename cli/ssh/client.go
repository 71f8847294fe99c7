package ssh

// Package ssh builds ssh invocations for a build server. It produces the
// argument vectors for interactive sessions and the remote shell string
// handed to rsync, optionally sharing one multiplexed connection between
// all of them.

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

const (
	appName        = "rbuild"
	controlPersist = "60s"
)

// Client describes how to reach a specific remote host.
type Client struct {
	logger       zerolog.Logger
	host         string
	port         uint16
	controlPath  string
	identityFile string
	extraOptions []string
	multiplex    bool
	controlDir   string
}

// SSHOption is a function that configures an SSH client.
type SSHOption func(*Client)

// WithIdentityFile sets the identity file (private key) to use for authentication.
func WithIdentityFile(path string) SSHOption {
	return func(c *Client) {
		c.identityFile = path
	}
}

// WithExtraOptions adds extra SSH options to the connection.
func WithExtraOptions(options ...string) SSHOption {
	return func(c *Client) {
		c.extraOptions = append(c.extraOptions, options...)
	}
}

// WithMultiplexing makes all invocations share one master connection, so
// the operator authenticates once per run.
func WithMultiplexing() SSHOption {
	return func(c *Client) {
		c.multiplex = true
	}
}

// WithControlDir overrides the directory holding the control socket.
func WithControlDir(dir string) SSHOption {
	return func(c *Client) {
		c.controlDir = dir
	}
}

// New creates a new SSH client for host. With multiplexing enabled the
// control socket directory is created.
func New(logger zerolog.Logger, host string, port uint16, opts ...SSHOption) (*Client, error) {
	c := &Client{
		logger: logger,
		host:   host,
		port:   port,
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	if c.multiplex {
		controlPath, err := c.setupMultiplexing()
		if err != nil {
			return nil, fmt.Errorf("failed to setup SSH multiplexing: %w", err)
		}
		c.controlPath = controlPath
	}

	return c, nil
}

// Host returns the remote host.
func (c *Client) Host() string {
	return c.host
}

// Port returns the remote ssh port.
func (c *Client) Port() uint16 {
	return c.port
}

// ControlPath returns the SSH control socket path, empty without multiplexing.
func (c *Client) ControlPath() string {
	return c.controlPath
}

// Target returns the rsync remote path "host:path".
func (c *Client) Target(path string) string {
	return c.host + ":" + path
}

// buildSSHArgs constructs the SSH arguments with all configured options.
func (c *Client) buildSSHArgs() []string {
	args := []string{"-p", strconv.FormatUint(uint64(c.port), 10)}

	// Add control path options if using multiplexing
	if c.controlPath != "" {
		args = append(args,
			"-o", "ControlMaster=auto",
			"-o", fmt.Sprintf("ControlPath=%s", c.controlPath),
			"-o", fmt.Sprintf("ControlPersist=%s", controlPersist),
		)
	}

	// Add identity file if specified
	if c.identityFile != "" {
		args = append(args, "-i", c.identityFile)
	}

	// Add extra options
	for _, opt := range c.extraOptions {
		args = append(args, "-o", opt)
	}

	return args
}

// SessionArgs returns the ssh arguments for running command on the host with
// a forced pseudo-terminal, so remote prompts reach the operator.
func (c *Client) SessionArgs(command string) []string {
	args := c.buildSSHArgs()
	return append(args, "-t", c.host, command)
}

// RemoteShell returns the value for rsync's -e flag.
func (c *Client) RemoteShell() string {
	return shellescape.QuoteCommand(append([]string{"ssh"}, c.buildSSHArgs()...))
}

// QuotePath quotes a remote path for the remote shell. A leading "~/" is kept
// outside the quotes so the remote shell still expands it.
func QuotePath(path string) string {
	if path == "~" {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if rest == "" {
			return path
		}
		return "~/" + shellescape.Quote(rest)
	}
	return shellescape.Quote(path)
}

// setupMultiplexing prepares the control socket location for host. The
// master connection itself is started by the first ssh invocation.
func (c *Client) setupMultiplexing() (string, error) {
	controlDir := c.controlDir
	if controlDir == "" {
		controlDir = getControlSocketDir()
	}

	// Create the control directory if it doesn't exist
	if err := os.MkdirAll(controlDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create control directory: %w", err)
	}

	// Unix domain sockets have a path length limit (typically 104-108 chars)
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", c.host, c.port)))
	hostHash := hex.EncodeToString(hash[:])[:12]

	controlPath := filepath.Join(controlDir, fmt.Sprintf("ssh-%s", hostHash))

	c.logger.Debug().
		Str("host", c.host).
		Str("hostHash", hostHash).
		Str("controlPath", controlPath).
		Int("pathLength", len(controlPath)).
		Msg("Setting up SSH multiplexing")

	return controlPath, nil
}

// getControlSocketDir returns the directory to use for SSH control sockets.
func getControlSocketDir() string {
	// Keep path short to avoid Unix socket path length limits
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, appName)
	}
	return filepath.Join(xdg.CacheHome, appName, "run")
}
