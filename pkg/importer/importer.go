// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package importer runs the end-to-end key import: parse the key material,
// validate it, import it into GnuPG, preset passphrases, assign trust and
// configure git signing. In dry-run mode every derivation still happens but
// no mutating call is issued.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/keyfold/gpg-import/pkg/git"
	"github.com/keyfold/gpg-import/pkg/gpg"
	"github.com/keyfold/gpg-import/pkg/pgp"
	"github.com/keyfold/gpg-import/pkg/pgp/armor"
)

// Importer executes one import attempt over a single key.
type Importer struct {
	keyMaterial []byte

	gpg *gpg.Client
	out io.Writer

	passphrase string
	keyFilter  string
	trustLevel int
	skipGit    bool
	globalGit  bool
	dryRun     bool
	workDir    string
}

// Option customizes an Importer.
type Option func(*Importer)

// WithPassphrase presets the given passphrase in the agent for every
// keygrip of the imported key.
func WithPassphrase(passphrase string) Option {
	return func(i *Importer) { i.passphrase = passphrase }
}

// WithKeyFilter selects a specific key or subkey (by fingerprint, key id or
// unambiguous fingerprint suffix) as the signing key.
func WithKeyFilter(filter string) Option {
	return func(i *Importer) { i.keyFilter = filter }
}

// WithTrustLevel assigns an ownertrust level in [1,5] to the imported key.
func WithTrustLevel(level int) Option {
	return func(i *Importer) { i.trustLevel = level }
}

// WithSkipGit disables git configuration.
func WithSkipGit() Option {
	return func(i *Importer) { i.skipGit = true }
}

// WithGlobalGit writes the signing configuration globally instead of into
// the enclosing repository.
func WithGlobalGit() Option {
	return func(i *Importer) { i.globalGit = true }
}

// WithDryRun performs all derivations but issues no mutating calls.
func WithDryRun() Option {
	return func(i *Importer) { i.dryRun = true }
}

// WithOutput redirects the import report.
func WithOutput(out io.Writer) Option {
	return func(i *Importer) { i.out = out }
}

// WithGPGClient replaces the GnuPG client.
func WithGPGClient(client *gpg.Client) Option {
	return func(i *Importer) { i.gpg = client }
}

// WithWorkDir sets the directory the repository detection starts from.
func WithWorkDir(dir string) Option {
	return func(i *Importer) { i.workDir = dir }
}

// New returns an Importer over the given armored (optionally base64-wrapped)
// key material.
func New(keyMaterial []byte, opts ...Option) *Importer {
	imp := &Importer{
		keyMaterial: keyMaterial,
		gpg:         gpg.NewClient(),
		out:         os.Stdout,
		workDir:     ".",
	}

	for _, opt := range opts {
		opt(imp)
	}

	return imp
}

// Run executes the import. Any failure aborts the attempt; there is no
// partial import.
func (imp *Importer) Run(ctx context.Context) error {
	if imp.dryRun {
		fmt.Fprintf(imp.out, "No changes will be made while running in dry-run mode\n\n")
	}

	block, err := armor.Decode(imp.keyMaterial)
	if err != nil {
		return err
	}

	bundle, err := pgp.ParseBundleBinary(block.Data)
	if err != nil {
		return err
	}

	if err := bundle.Validate(); err != nil {
		return fmt.Errorf("key material is not usable: %w", err)
	}

	selected, err := bundle.Select(imp.keyFilter)
	if err != nil {
		return err
	}

	info, err := imp.gpg.Detect(ctx)

	switch {
	case err != nil && imp.dryRun:
		// A dry run still reports every derivation on a machine without
		// GnuPG installed.
		fmt.Fprintf(imp.out, "> Detected GnuPG:\nnot detected (%v)\n\n", err)
	case err != nil:
		return err
	default:
		fmt.Fprintf(imp.out, "> Detected GnuPG:\n%s\n\n", info)
	}

	if !imp.dryRun {
		if err := imp.gpg.ImportKey(ctx, block.Data); err != nil {
			return err
		}

		if err := imp.gpg.WriteDefaults(info.HomeDir); err != nil {
			return err
		}

		if err := imp.gpg.ReloadAgent(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(imp.out, "> Imported GPG key:\n%s", renderBundle(bundle))

	if err := imp.presetPassphrases(ctx, bundle); err != nil {
		return err
	}

	if err := imp.setTrust(ctx, bundle); err != nil {
		return err
	}

	return imp.configureGit(bundle, selected)
}

// presetPassphrases caches the passphrase for the primary key and every
// subkey, keyed by their independent keygrips.
func (imp *Importer) presetPassphrases(ctx context.Context, bundle *pgp.KeyBundle) error {
	if imp.passphrase == "" {
		return nil
	}

	grips := []struct{ grip, keyID string }{{bundle.Keygrip, bundle.KeyID}}
	for _, sk := range bundle.Subkeys {
		grips = append(grips, struct{ grip, keyID string }{sk.Keygrip, sk.KeyID})
	}

	fmt.Fprintf(imp.out, "\n> Setting Passphrase:\n")

	for _, g := range grips {
		if !imp.dryRun {
			if err := imp.gpg.PresetPassphrase(ctx, g.grip, imp.passphrase); err != nil {
				return err
			}
		}

		fmt.Fprintf(imp.out, "keygrip: %s [%s]\n", g.grip, g.keyID)
	}

	return nil
}

func (imp *Importer) setTrust(ctx context.Context, bundle *pgp.KeyBundle) error {
	if imp.trustLevel == 0 {
		return nil
	}

	if !imp.dryRun {
		if err := imp.gpg.SetOwnerTrust(ctx, bundle.Fingerprint, imp.trustLevel); err != nil {
			return err
		}
	}

	fmt.Fprintf(imp.out, "\n> Setting Trust Level:\ntrust_level: %d [%s]\n", imp.trustLevel, bundle.KeyID)

	return nil
}

// configureGit writes signing configuration. With a key filter the exact
// selected fingerprint becomes the signing key, otherwise the primary key
// id does.
func (imp *Importer) configureGit(bundle *pgp.KeyBundle, selected *pgp.KeyDetails) error {
	if imp.skipGit {
		return nil
	}

	signingKey := bundle.KeyID
	if imp.keyFilter != "" {
		signingKey = selected.Fingerprint
	}

	signing := &git.SigningConfig{
		UserName:   bundle.Identity.Name,
		UserEmail:  bundle.Identity.Email,
		SigningKey: signingKey,
		CommitSign: true,
		TagSign:    true,
		PushSign:   true,
	}

	if imp.globalGit {
		if !imp.dryRun {
			if err := git.ConfigureSigningGlobal(signing); err != nil {
				return err
			}
		}
	} else {
		repo, found := git.DetectRepo(imp.workDir)
		if !found {
			return nil
		}

		if !imp.dryRun {
			if err := git.ConfigureSigning(repo, signing); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(imp.out, "\n> Git config set:\n%s", signing)

	return nil
}
