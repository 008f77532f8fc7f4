// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	"testing"
)

func TestCommands_MatchDispatcher(t *testing.T) {
	commands, err := Commands()
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}

	dispatcher, err := New(Config{Store: newFixture(t).store, NewNotion: func(string, string) (NotionClient, error) { return nil, nil }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	handled := map[string]bool{CommandSetup: true, CommandConfig: true, CommandReset: true}
	for name := range dispatcher.taskCommands {
		handled[name] = true
	}

	defined := make(map[string]bool)
	for _, command := range commands {
		defined[command.Name] = true
		if !handled[command.Name] {
			t.Errorf("command %q is defined but not handled", command.Name)
		}
		if command.Description == "" {
			t.Errorf("command %q has no description", command.Name)
		}
	}
	for name := range handled {
		if !defined[name] {
			t.Errorf("command %q is handled but not defined", name)
		}
	}
}

func TestCommands_AdminCommandsRestricted(t *testing.T) {
	commands, err := Commands()
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	for _, command := range commands {
		admin := command.Name == CommandSetup || command.Name == CommandConfig || command.Name == CommandReset
		if admin && command.DefaultMemberPermissions != "32" {
			t.Errorf("%s default_member_permissions = %q, want 32", command.Name, command.DefaultMemberPermissions)
		}
		if !admin && command.DefaultMemberPermissions != "" {
			t.Errorf("%s should be available to everyone", command.Name)
		}
	}
}

func TestCommands_SetupOptions(t *testing.T) {
	commands, err := Commands()
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	for _, command := range commands {
		if command.Name != CommandSetup {
			continue
		}
		names := map[string]bool{}
		for _, option := range command.Options {
			if !option.Required {
				t.Errorf("setup option %q should be required", option.Name)
			}
			names[option.Name] = true
		}
		if !names[OptionNotionToken] || !names[OptionNotionDatabaseID] {
			t.Errorf("setup options = %v", names)
		}
		return
	}
	t.Fatal("setup command not defined")
}

func TestParseCommands_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"not json", `{`},
		{"unnamed", `[{"description": "x"}]`},
		{"duplicate", `[{"name": "a"}, /* again */ {"name": "a"}]`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := parseCommands([]byte(test.source)); err == nil {
				t.Error("parseCommands should fail")
			}
		})
	}

	commands, err := parseCommands([]byte("// comment\n[{\"name\": \"a\",},]"))
	if err != nil || len(commands) != 1 {
		t.Errorf("comments and trailing commas: %v, %v", commands, err)
	}
}
