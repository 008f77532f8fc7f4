// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bureau-foundation/notionbot/lib/sealed"
	"github.com/bureau-foundation/notionbot/lib/session"
)

const (
	identityFileName   = "age.key"
	sessionKeyFileName = "session.key"
)

func newKeygenCommand() *cobra.Command {
	var dir string
	var force bool
	command := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the age identity and the session signing key",
		Long: `Writes age.key (seals Notion keys and Discord tokens at rest) and
session.key (signs dashboard sessions) into --dir with 0600 permissions.
Point secrets.identity_file and session.key_file at them.

Replacing age.key makes every stored Notion key unreadable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generateKeys(cmd.OutOrStdout(), dir, force)
		},
	}
	command.Flags().StringVar(&dir, "dir", ".", "directory to write the key files into")
	command.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return command
}

func generateKeys(out io.Writer, dir string, force bool) error {
	identityPath := filepath.Join(dir, identityFileName)
	sessionPath := filepath.Join(dir, sessionKeyFileName)
	if !force {
		for _, path := range []string{identityPath, sessionPath} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to replace it)", path)
			}
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return err
	}
	defer keypair.Close()
	if err := writeSecretFile(identityPath, keypair.PrivateKey.Bytes()); err != nil {
		return fmt.Errorf("writing age identity: %w", err)
	}

	signingKey, err := session.GenerateKey()
	if err != nil {
		return err
	}
	if err := session.SaveKey(sessionPath, signingKey); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s\n", identityPath)
	fmt.Fprintf(out, "Wrote %s\n", sessionPath)
	fmt.Fprintf(out, "age recipient: %s\n", keypair.PublicKey)
	return nil
}

// writeSecretFile writes data and a newline straight from the caller's
// buffer, without an intermediate heap copy.
func writeSecretFile(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
