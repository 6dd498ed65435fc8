// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gpg drives the installed GnuPG client and its agent: importing
// key material, presetting passphrases by keygrip and assigning ownertrust.
// All key inspection happens elsewhere; this package only mutates the
// keyring state that gpg owns.
package gpg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/keyfold/gpg-import/pkg/fileutils"
)

// ErrNoGnuPG is returned when no usable gpg binary can be detected.
var ErrNoGnuPG = errors.New("gpg: GnuPG client not detected")

// Runner executes an external command with the given stdin and returns its
// standard streams. It exists so tests can stand in for the real binaries.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

// Client wraps the gpg and gpg-connect-agent binaries.
type Client struct {
	runner Runner
}

// Option customizes a Client.
type Option func(*Client)

// WithRunner replaces the command runner used by the client.
func WithRunner(runner Runner) Option {
	return func(c *Client) {
		c.runner = runner
	}
}

// NewClient returns a Client executing the real binaries unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{runner: execRunner{}}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Info describes the detected GnuPG installation.
type Info struct {
	// Version is the GnuPG version string.
	Version string

	// Libgcrypt is the version of libgcrypt GnuPG was built against.
	Libgcrypt string

	// HomeDir is where gpg keeps its configuration and keyring.
	HomeDir string
}

// Detect inspects the OS for a gpg client and returns its version details.
func (c *Client) Detect(ctx context.Context) (*Info, error) {
	stdout, _, err := c.runner.Run(ctx, nil, "gpg", "--version")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGnuPG, err)
	}

	info, err := parseInfo(string(stdout))
	if err != nil {
		return nil, err
	}

	if info.HomeDir == "" {
		// Older gpg builds omit the Home line from --version output.
		info.HomeDir = filepath.Join(xdg.Home, ".gnupg")
	}

	return info, nil
}

// ImportKey imports raw (still armored) private key material into the
// keyring.
func (c *Client) ImportKey(ctx context.Context, keyMaterial []byte) error {
	_, stderr, err := c.runner.Run(ctx, keyMaterial, "gpg", "--import", "--batch", "--yes")
	if err != nil {
		return fmt.Errorf("gpg: import failed: %w: %s", err, bytes.TrimSpace(stderr))
	}

	return nil
}

// PresetPassphrase caches the passphrase for a keygrip in the agent so that
// subsequent signing requests need no pinentry. The agent wants the
// passphrase hex-encoded, uppercase.
func (c *Client) PresetPassphrase(ctx context.Context, grip, passphrase string) error {
	command := fmt.Sprintf("PRESET_PASSPHRASE %s -1 %X\n/bye\n", grip, passphrase)

	stdout, stderr, err := c.runner.Run(ctx, []byte(command), "gpg-connect-agent")
	if err != nil {
		return fmt.Errorf("gpg: preset passphrase for keygrip %s: %w: %s", grip, err, bytes.TrimSpace(stderr))
	}

	if line, failed := agentError(stdout); failed {
		return fmt.Errorf("gpg: preset passphrase for keygrip %s: %s", grip, line)
	}

	return nil
}

// SetOwnerTrust assigns an ownertrust level in [1,5] to an imported key.
func (c *Client) SetOwnerTrust(ctx context.Context, fingerprint string, level int) error {
	if level < 1 || level > 5 {
		return fmt.Errorf("gpg: ownertrust level %d outside [1,5]", level)
	}

	answers := fmt.Sprintf("%d\ny\n", level)

	_, stderr, err := c.runner.Run(ctx, []byte(answers), "gpg",
		"--batch", "--no-tty", "--command-fd", "0", "--edit-key", fingerprint, "trust", "quit")
	if err != nil {
		return fmt.Errorf("gpg: set ownertrust on %s: %w: %s", fingerprint, err, bytes.TrimSpace(stderr))
	}

	return nil
}

// ReloadAgent asks a running agent to pick up configuration changes.
func (c *Client) ReloadAgent(ctx context.Context) error {
	_, _, err := c.runner.Run(ctx, nil, "gpg-connect-agent", "RELOADAGENT", "/bye")
	if err != nil {
		return fmt.Errorf("gpg: reload agent: %w", err)
	}

	return nil
}

// Conf file contents written by WriteDefaults. Loopback pinentry plus
// preset passphrases is what makes unattended CI signing work.
const (
	gpgConf = "use-agent\npinentry-mode loopback\n"

	agentConf = "default-cache-ttl 21600\n" +
		"max-cache-ttl 31536000\n" +
		"allow-preset-passphrase\n" +
		"allow-loopback-pinentry\n"
)

// WriteDefaults writes gpg.conf and gpg-agent.conf defaults into homeDir,
// creating it when needed. Existing unwritable configuration is an error
// rather than something to silently clobber.
func (c *Client) WriteDefaults(homeDir string) error {
	if err := os.MkdirAll(homeDir, 0o700); err != nil {
		return fmt.Errorf("gpg: create home directory: %w", err)
	}

	for name, content := range map[string]string{
		"gpg.conf":       gpgConf,
		"gpg-agent.conf": agentConf,
	} {
		path := filepath.Join(homeDir, name)

		if fileutils.FileExists(path) && !fileutils.IsWritable(path) {
			return fmt.Errorf("gpg: %s exists and is not writable", path)
		}

		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("gpg: write %s: %w", name, err)
		}
	}

	return nil
}

// agentError scans gpg-connect-agent output for an ERR response line.
func agentError(stdout []byte) (string, bool) {
	for _, line := range bytes.Split(stdout, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("ERR ")) {
			return string(line), true
		}
	}

	return "", false
}
