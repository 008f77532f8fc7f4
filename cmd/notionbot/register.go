// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bureau-foundation/notionbot/lib/discord"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

func newRegisterCommandsCommand(opts *globalOptions) *cobra.Command {
	var guildID string
	command := &cobra.Command{
		Use:   "register-commands",
		Short: "Register the slash commands with Discord",
		Long: `Overwrites the application's slash commands with the bot's command set.
Global registration can take up to an hour to reach every guild; --guild
registers for one guild immediately, which is useful while testing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Discord.BotToken == "" || cfg.Discord.ApplicationID == "" {
				return errors.New("discord.bot_token and discord.application_id are required")
			}

			commands, err := taskbot.Commands()
			if err != nil {
				return err
			}
			client, err := discord.NewClient(discord.Config{
				BotToken: cfg.Discord.BotToken,
				BaseURL:  cfg.Discord.APIBaseURL,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			registered, err := client.RegisterCommands(cmd.Context(), cfg.Discord.ApplicationID, guildID, commands)
			if err != nil {
				return fmt.Errorf("registering commands: %w", err)
			}

			scope := "globally"
			if guildID != "" {
				scope = "in guild " + guildID
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %d commands %s:\n", len(registered), scope)
			for _, command := range registered {
				fmt.Fprintf(cmd.OutOrStdout(), "  /%-14s %s\n", command.Name, command.Description)
			}
			return nil
		},
	}
	command.Flags().StringVar(&guildID, "guild", "", "register for one guild instead of globally")
	return command
}
