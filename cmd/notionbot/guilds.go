// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

func newListGuildsCommand(opts *globalOptions) *cobra.Command {
	var userID string
	command := &cobra.Command{
		Use:   "list-guilds",
		Short: "List registered guilds and their Notion settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.openStore()
			if err != nil {
				return err
			}
			defer env.Close()

			var guilds []guildconfig.GuildConfig
			if userID != "" {
				guilds, err = env.store.ListForUser(cmd.Context(), userID)
			} else {
				guilds, err = env.store.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			renderGuildTable(cmd.OutOrStdout(), guilds)
			return nil
		},
	}
	command.Flags().StringVar(&userID, "user", "", "only guilds registered by this Discord user ID")
	return command
}

func newSetNotionCommand(opts *globalOptions) *cobra.Command {
	var guildID, databaseID, guildName string
	command := &cobra.Command{
		Use:   "set-notion",
		Short: "Store a guild's Notion token and database",
		Long: `Prompts for the Notion integration token (or reads one line from stdin
when it is not a terminal), checks the database is reachable, and saves
the credentials sealed in the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			token, err := readToken(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			normalizedID := notion.NormalizeID(databaseID)
			if err := taskbot.ValidateCredentials(token, normalizedID); err != nil {
				return err
			}

			env, err := opts.openStore()
			if err != nil {
				return err
			}
			defer env.Close()

			client, err := env.notionClient(token, normalizedID)
			if err != nil {
				return err
			}
			result, err := client.TestConnection(ctx)
			if err != nil {
				fmt.Fprintln(out, statusLine(false, "Could not connect to Notion", notion.UserMessage(err)))
				return fmt.Errorf("connection test failed: %w", err)
			}

			cfg, err := env.store.Get(ctx, guildID)
			switch {
			case errors.Is(err, guildconfig.ErrNotFound):
				cfg = &guildconfig.GuildConfig{GuildID: guildID, GuildName: guildconfig.UnknownGuildName}
			case err != nil:
				return err
			}
			if guildName != "" {
				cfg.GuildName = guildName
			}
			cfg.NotionAPIKey = token
			cfg.NotionDatabaseID = normalizedID
			if err := env.store.Save(ctx, cfg); err != nil {
				return err
			}
			fmt.Fprintln(out, statusLine(true,
				fmt.Sprintf("Saved Notion settings for %s", guildID),
				fmt.Sprintf("database %q, key %s", result.Database.Title, guildconfig.Fingerprint(token))))
			return nil
		},
	}
	command.Flags().StringVar(&guildID, "guild", "", "Discord guild ID (required)")
	command.Flags().StringVar(&databaseID, "database", "", "Notion database ID or URL (required)")
	command.Flags().StringVar(&guildName, "name", "", "guild name to record")
	command.MarkFlagRequired("guild")
	command.MarkFlagRequired("database")
	return command
}

// readToken prompts without echo on a terminal and otherwise reads the
// first line of in.
func readToken(in io.Reader, prompt io.Writer) (string, error) {
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(prompt, "Notion integration token: ")
		raw, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", errors.New("no Notion token given on stdin")
	}
	return token, nil
}

func newCheckCommand(opts *globalOptions) *cobra.Command {
	var guildID string
	command := &cobra.Command{
		Use:   "check",
		Short: "Test a guild's Notion connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			env, err := opts.openStore()
			if err != nil {
				return err
			}
			defer env.Close()

			cfg, client, err := env.guildClient(cmd.Context(), guildID)
			if err != nil {
				fmt.Fprintln(out, statusLine(false, "Not configured", err.Error()))
				return err
			}
			result, err := client.TestConnection(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, statusLine(false, "Notion connection failed", notion.UserMessage(err)))
				return err
			}
			fmt.Fprintln(out, statusLine(true,
				fmt.Sprintf("%s is connected to %q", cfg.GuildName, result.Database.Title),
				result.Database.URL))
			return nil
		},
	}
	command.Flags().StringVar(&guildID, "guild", "", "Discord guild ID (required)")
	command.MarkFlagRequired("guild")
	return command
}
