// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"encoding/json"
	"strconv"
	"time"
)

// InteractionType values.
const (
	InteractionPing               = 1
	InteractionApplicationCommand = 2
)

// InteractionResponse types.
const (
	ResponsePong                             = 1
	ResponseChannelMessageWithSource         = 4
	ResponseDeferredChannelMessageWithSource = 5
)

// ResponseDeadline is how long Discord waits for the synchronous
// response before showing "The application did not respond".
const ResponseDeadline = 3 * time.Second

// MessageFlagEphemeral makes a reply visible only to the invoking user.
const MessageFlagEphemeral = 1 << 6

// MaxMessageLength is the longest content a message may carry.
const MaxMessageLength = 2000

// Interaction is an incoming interaction delivery. Only the fields the
// bot reads are modelled.
type Interaction struct {
	ID            string           `json:"id"`
	ApplicationID string           `json:"application_id"`
	Type          int              `json:"type"`
	Token         string           `json:"token"`
	GuildID       string           `json:"guild_id,omitempty"`
	ChannelID     string           `json:"channel_id,omitempty"`
	Member        *Member          `json:"member,omitempty"`
	User          *User            `json:"user,omitempty"`
	Data          *InteractionData `json:"data,omitempty"`
}

// Member is the invoking guild member.
type Member struct {
	User        *User  `json:"user,omitempty"`
	Nick        string `json:"nick,omitempty"`
	Permissions string `json:"permissions,omitempty"`
}

type InteractionData struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Type    int                 `json:"type"`
	Options []InteractionOption `json:"options,omitempty"`
}

type InteractionOption struct {
	Name  string          `json:"name"`
	Type  int             `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Invoker returns the user who triggered the interaction, from the
// member in guilds or the top-level user in DMs.
func (i *Interaction) Invoker() *User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// CommandName returns the slash command name, or "".
func (i *Interaction) CommandName() string {
	if i.Data == nil {
		return ""
	}
	return i.Data.Name
}

// MemberCanManage reports whether the invoking member holds
// Administrator or Manage Server in the guild.
func (i *Interaction) MemberCanManage() bool {
	if i.Member == nil {
		return false
	}
	permissions, err := strconv.ParseUint(i.Member.Permissions, 10, 64)
	if err != nil {
		return false
	}
	return permissions&(PermissionAdministrator|PermissionManageGuild) != 0
}

// Options flattens the top-level command options into name → string.
// String values are unquoted; numbers and booleans keep their JSON
// text.
func (i *Interaction) Options() map[string]string {
	options := make(map[string]string)
	if i.Data == nil {
		return options
	}
	for _, option := range i.Data.Options {
		if len(option.Value) == 0 {
			continue
		}
		var text string
		if json.Unmarshal(option.Value, &text) == nil {
			options[option.Name] = text
			continue
		}
		options[option.Name] = string(option.Value)
	}
	return options
}

// InteractionResponse is the synchronous reply to an interaction.
type InteractionResponse struct {
	Type int                      `json:"type"`
	Data *InteractionCallbackData `json:"data,omitempty"`
}

type InteractionCallbackData struct {
	Content string `json:"content,omitempty"`
	Flags   int    `json:"flags,omitempty"`
}

// Pong acknowledges a PING.
func Pong() InteractionResponse {
	return InteractionResponse{Type: ResponsePong}
}

// Message replies with content, truncated to MaxMessageLength runes.
func Message(content string, ephemeral bool) InteractionResponse {
	data := &InteractionCallbackData{Content: Truncate(content, MaxMessageLength)}
	if ephemeral {
		data.Flags = MessageFlagEphemeral
	}
	return InteractionResponse{Type: ResponseChannelMessageWithSource, Data: data}
}

// Deferred acknowledges the interaction and shows a "thinking" state.
// The real content follows through [Client.EditOriginalResponse]. The
// ephemeral flag decided here also applies to the edited message.
func Deferred(ephemeral bool) InteractionResponse {
	response := InteractionResponse{Type: ResponseDeferredChannelMessageWithSource}
	if ephemeral {
		response.Data = &InteractionCallbackData{Flags: MessageFlagEphemeral}
	}
	return response
}

// Truncate shortens s to at most limit runes, ending with "…" when cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
