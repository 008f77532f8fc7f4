// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/notionbot/lib/discord"
)

// Command names.
const (
	CommandSetup         = "setup"
	CommandConfig        = "config"
	CommandReset         = "reset"
	CommandAddTask       = "addtask"
	CommandMyTasks       = "mytasks"
	CommandDueTasks      = "duetasks"
	CommandAdvise        = "advise"
	CommandWeekProgress  = "weekprogress"
	CommandWeekAdvise    = "weekadvise"
	CommandListAssignees = "listassignees"
	CommandListStatus    = "liststatus"
)

// Option names read from Invocation.Options.
const (
	OptionNotionToken      = "notion_token"
	OptionNotionDatabaseID = "notion_database_id"
	OptionTitle            = "title"
	OptionDescription      = "description"
	OptionStatus           = "status"
	OptionPriority         = "priority"
	OptionAssignee         = "assignee"
	OptionDue              = "due"
	OptionTags             = "tags"
)

//go:embed commands.jsonc
var commandsSource []byte

// Commands returns the slash command definitions to register with
// Discord. Each call decodes a fresh copy.
func Commands() ([]discord.ApplicationCommand, error) {
	return parseCommands(commandsSource)
}

func parseCommands(source []byte) ([]discord.ApplicationCommand, error) {
	var commands []discord.ApplicationCommand
	if err := json.Unmarshal(jsonc.ToJSON(source), &commands); err != nil {
		return nil, fmt.Errorf("taskbot: parsing command definitions: %w", err)
	}
	seen := make(map[string]bool, len(commands))
	for _, command := range commands {
		if command.Name == "" {
			return nil, fmt.Errorf("taskbot: command definition without a name")
		}
		if seen[command.Name] {
			return nil, fmt.Errorf("taskbot: duplicate command definition %q", command.Name)
		}
		seen[command.Name] = true
	}
	return commands, nil
}
