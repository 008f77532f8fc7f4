// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bureau-foundation/notionbot/lib/llm"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

func newTasksCommand(opts *globalOptions) *cobra.Command {
	var guildID, status string
	var open bool
	command := &cobra.Command{
		Use:   "tasks",
		Short: "List a guild's Notion tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.openStore()
			if err != nil {
				return err
			}
			defer env.Close()

			_, client, err := env.guildClient(cmd.Context(), guildID)
			if err != nil {
				return err
			}
			var filter notion.Filter
			switch {
			case status != "":
				filter = notion.StatusEquals(status)
			case open:
				filter = notion.StatusNotEquals(notion.StatusDone)
			}
			tasks, err := client.GetTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			renderTaskTable(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	command.Flags().StringVar(&guildID, "guild", "", "Discord guild ID (required)")
	command.Flags().StringVar(&status, "status", "", "only tasks with this status")
	command.Flags().BoolVar(&open, "open", false, "only tasks that are not Done")
	command.MarkFlagRequired("guild")
	return command
}

func newAdviseCommand(opts *globalOptions) *cobra.Command {
	var guildID, assignee, style string
	var width int
	command := &cobra.Command{
		Use:   "advise",
		Short: "Print LLM advice for an assignee's open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, err := opts.openStore()
			if err != nil {
				return err
			}
			defer env.Close()

			llmConfig := env.config.LLM
			if !llmConfig.Enabled() {
				return errors.New("llm.api_key is not set; advice is disabled")
			}
			provider, err := llm.New(llmConfig.Provider, llm.Config{BaseURL: llmConfig.BaseURL, APIKey: llmConfig.APIKey})
			if err != nil {
				return err
			}
			advisor := &taskbot.Advisor{Provider: provider, Model: llmConfig.Model, MaxTokens: llmConfig.MaxTokens}

			_, client, err := env.guildClient(ctx, guildID)
			if err != nil {
				return err
			}
			tasks, err := client.GetTasks(ctx, notion.StatusNotEquals(notion.StatusDone))
			if err != nil {
				return err
			}
			selected := taskbot.OpenTasksFor(tasks, assignee, time.UTC)
			if len(selected) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No open tasks for %s.\n", assignee)
				return nil
			}

			advice, err := advisor.AdviseAssignee(ctx, assignee, selected)
			if err != nil {
				return err
			}
			rendered, err := renderMarkdown(fmt.Sprintf("# Advice for %s\n\n%s", assignee, advice), style, width)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	command.Flags().StringVar(&guildID, "guild", "", "Discord guild ID (required)")
	command.Flags().StringVar(&assignee, "assignee", "", "assignee name as shown in Notion (required)")
	command.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light or notty")
	command.Flags().IntVar(&width, "width", 100, "wrap width")
	command.MarkFlagRequired("guild")
	command.MarkFlagRequired("assignee")
	return command
}
