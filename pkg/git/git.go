// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package git writes the configuration that makes git sign with an imported
// key: identity, signing key and the gpgsign switches, either into the
// enclosing repository or into the user's global configuration.
package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"

	"github.com/keyfold/gpg-import/pkg/fileutils"
)

// SigningConfig is the set of git options written for GPG signing.
type SigningConfig struct {
	// UserName maps to user.name.
	UserName string

	// UserEmail maps to user.email.
	UserEmail string

	// SigningKey is the fingerprint or key id mapped to user.signingKey.
	SigningKey string

	// CommitSign maps to commit.gpgsign.
	CommitSign bool

	// TagSign maps to tag.gpgsign.
	TagSign bool

	// PushSign maps to push.gpgsign, written as "if-asked" so pushes to
	// remotes that do not accept signatures still succeed.
	PushSign bool
}

// String renders the configuration as it appears in the import report.
func (c *SigningConfig) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "user.name:       %s\n", c.UserName)
	fmt.Fprintf(&b, "user.email:      %s\n", c.UserEmail)
	fmt.Fprintf(&b, "user.signingKey: %s\n", c.SigningKey)
	fmt.Fprintf(&b, "commit.gpgsign:  %t\n", c.CommitSign)
	fmt.Fprintf(&b, "tag.gpgsign:     %t\n", c.TagSign)

	if c.PushSign {
		fmt.Fprintf(&b, "push.gpgsign:    if-asked\n")
	}

	return b.String()
}

// DetectRepo opens the git repository enclosing dir, searching parent
// directories the way git itself does.
func DetectRepo(dir string) (*gogit.Repository, bool) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, false
	}

	return repo, true
}

// ConfigureSigning writes the signing configuration into the repository's
// local configuration.
func ConfigureSigning(repo *gogit.Repository, signing *SigningConfig) error {
	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("git: read repository config: %w", err)
	}

	applySigning(cfg, signing)

	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("git: write repository config: %w", err)
	}

	return nil
}

// ConfigureSigningGlobal writes the signing configuration into the user's
// global git configuration file.
func ConfigureSigningGlobal(signing *SigningConfig) error {
	cfg, err := config.LoadConfig(config.GlobalScope)
	if err != nil {
		return fmt.Errorf("git: read global config: %w", err)
	}

	applySigning(cfg, signing)

	out, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("git: marshal global config: %w", err)
	}

	path, err := globalConfigPath()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("git: write %s: %w", path, err)
	}

	return nil
}

// globalConfigPath resolves the file the global configuration was loaded
// from: the first existing global scope candidate, which is where
// LoadConfig read it. With no global config anywhere yet, a fresh
// ~/.gitconfig is created.
func globalConfigPath() (string, error) {
	paths, err := config.Paths(config.GlobalScope)
	if err != nil {
		return "", fmt.Errorf("git: resolve global config paths: %w", err)
	}

	for _, path := range paths {
		if fileutils.FileExists(path) {
			return path, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("git: resolve home directory: %w", err)
	}

	return filepath.Join(home, ".gitconfig"), nil
}

func applySigning(cfg *config.Config, signing *SigningConfig) {
	cfg.User.Name = signing.UserName
	cfg.User.Email = signing.UserEmail

	cfg.Raw.Section("user").SetOption("signingKey", signing.SigningKey)
	cfg.Raw.Section("commit").SetOption("gpgsign", fmt.Sprintf("%t", signing.CommitSign))
	cfg.Raw.Section("tag").SetOption("gpgsign", fmt.Sprintf("%t", signing.TagSign))

	if signing.PushSign {
		cfg.Raw.Section("push").SetOption("gpgsign", "if-asked")
	}
}
