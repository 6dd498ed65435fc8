// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// gpg-import imports a GPG private key into a CI build agent and configures
// git to sign with it. The key material arrives through the GPG_PRIVATE_KEY
// environment variable (armored, optionally base64-wrapped once more) or a
// key file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/keyfold/gpg-import/pkg/importer"
)

var version = "dev"

const (
	envPrivateKey = "GPG_PRIVATE_KEY"
	envPassphrase = "GPG_PASSPHRASE"
	envTrustLevel = "GPG_TRUST_LEVEL"
	envKeyFilter  = "GPG_FINGERPRINT"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gpg-import: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gpg-import", flag.ContinueOnError)

	var (
		keyFile      = fs.String("key-file", "", "read the private key from a file instead of "+envPrivateKey)
		keyFilter    = fs.String("fingerprint", os.Getenv(envKeyFilter), "fingerprint, key id or fingerprint suffix of the key to sign with")
		trustLevel   = fs.Int("trust-level", 0, "ownertrust level to assign, 1 to 5")
		skipGit      = fs.Bool("skip-git", false, "do not write git configuration")
		globalGit    = fs.Bool("global", false, "write git configuration globally instead of into the repository")
		dryRun       = fs.Bool("dry-run", false, "derive and report everything without changing anything")
		printVersion = fs.Bool("version", false, "print the version and exit")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return err
	}

	if *printVersion {
		fmt.Println(version)

		return nil
	}

	if *trustLevel == 0 {
		if v, ok := os.LookupEnv(envTrustLevel); ok {
			level, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s must be a number between 1 and 5: %w", envTrustLevel, err)
			}

			*trustLevel = level
		}
	}

	source := importer.KeySource{
		Value: os.Getenv(envPrivateKey),
		Path:  *keyFile,
	}

	material, err := source.Material()
	if err != nil {
		return fmt.Errorf("%w: set %s or pass -key-file", err, envPrivateKey)
	}

	opts := []importer.Option{
		importer.WithKeyFilter(*keyFilter),
		importer.WithTrustLevel(*trustLevel),
		importer.WithPassphrase(os.Getenv(envPassphrase)),
	}

	if *skipGit {
		opts = append(opts, importer.WithSkipGit())
	}

	if *globalGit {
		opts = append(opts, importer.WithGlobalGit())
	}

	if *dryRun {
		opts = append(opts, importer.WithDryRun())
	}

	return importer.New(material, opts...).Run(ctx)
}
