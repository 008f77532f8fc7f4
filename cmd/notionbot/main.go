// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bureau-foundation/notionbot/lib/config"
	"github.com/bureau-foundation/notionbot/lib/process"
	"github.com/bureau-foundation/notionbot/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "notionbot",
		Short: "Operate the Notion task bot",
		Long: `notionbot manages the Discord/Notion task bot from the service host.
It reads the same configuration file as notionbot-service.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to the YAML config (default: $"+config.EnvVar+")")

	root.AddCommand(
		newRegisterCommandsCommand(opts),
		newKeygenCommand(),
		newListGuildsCommand(opts),
		newSetNotionCommand(opts),
		newCheckCommand(opts),
		newTasksCommand(opts),
		newAdviseCommand(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(*cobra.Command, []string) {
				version.Print("notionbot")
			},
		},
	)
	return root
}
