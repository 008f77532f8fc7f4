// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

const commandPayload = `{
	"id": "1", "application_id": "app", "type": 2, "token": "tok", "guild_id": "g1",
	"member": {"user": {"id": "u1", "username": "nelly", "global_name": "Nelly"}, "permissions": "32"},
	"data": {"id": "c1", "name": "addtask", "type": 1, "options": [
		{"name": "title", "type": 3, "value": "Write report"},
		{"name": "days", "type": 4, "value": 3},
		{"name": "urgent", "type": 5, "value": true}
	]}
}`

func TestInteraction_Decode(t *testing.T) {
	var interaction Interaction
	if err := json.Unmarshal([]byte(commandPayload), &interaction); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if interaction.CommandName() != "addtask" {
		t.Errorf("CommandName = %q, want addtask", interaction.CommandName())
	}
	if invoker := interaction.Invoker(); invoker == nil || invoker.DisplayName() != "Nelly" {
		t.Errorf("Invoker = %+v, want Nelly", invoker)
	}
	if !interaction.MemberCanManage() {
		t.Error("MemberCanManage = false for Manage Server permission")
	}

	options := interaction.Options()
	want := map[string]string{"title": "Write report", "days": "3", "urgent": "true"}
	for name, value := range want {
		if options[name] != value {
			t.Errorf("option %s = %q, want %q", name, options[name], value)
		}
	}
}

func TestGuild_CanManage(t *testing.T) {
	tests := []struct {
		name  string
		guild Guild
		want  bool
	}{
		{"owner", Guild{Owner: true, Permissions: "0"}, true},
		{"administrator", Guild{Permissions: "8"}, true},
		{"manage server", Guild{Permissions: "32"}, true},
		{"member", Guild{Permissions: "1024"}, false},
		{"garbage", Guild{Permissions: "lots"}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.guild.CanManage(); got != test.want {
				t.Errorf("CanManage = %v, want %v", got, test.want)
			}
		})
	}

	filtered := ManageableGuilds([]Guild{{ID: "a", Owner: true}, {ID: "b", Permissions: "0"}})
	if len(filtered) != 1 || filtered[0].ID != "a" {
		t.Errorf("ManageableGuilds = %+v, want only a", filtered)
	}
}

func TestMessage(t *testing.T) {
	response := Message(strings.Repeat("é", 2500), true)
	if response.Type != ResponseChannelMessageWithSource {
		t.Errorf("Type = %d, want %d", response.Type, ResponseChannelMessageWithSource)
	}
	if response.Data.Flags != MessageFlagEphemeral {
		t.Errorf("Flags = %d, want 64", response.Data.Flags)
	}
	if count := utf8.RuneCountInString(response.Data.Content); count != MaxMessageLength {
		t.Errorf("content length = %d runes, want %d", count, MaxMessageLength)
	}
	if !strings.HasSuffix(response.Data.Content, "…") {
		t.Error("truncated content does not end with an ellipsis")
	}

	encoded, _ := json.Marshal(Pong())
	if string(encoded) != `{"type":1}` {
		t.Errorf("Pong = %s, want {\"type\":1}", encoded)
	}

	short := Message("hi", false)
	if short.Data.Content != "hi" || short.Data.Flags != 0 {
		t.Errorf("Message(hi) = %+v", short.Data)
	}
}

func TestDeferred(t *testing.T) {
	encoded, _ := json.Marshal(Deferred(false))
	if string(encoded) != `{"type":5}` {
		t.Errorf("Deferred(false) = %s", encoded)
	}
	encoded, _ = json.Marshal(Deferred(true))
	if string(encoded) != `{"type":5,"data":{"flags":64}}` {
		t.Errorf("Deferred(true) = %s", encoded)
	}
}
