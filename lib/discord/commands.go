// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"net/http"
	"net/url"
)

// Option types used by the bot's commands.
const (
	OptionTypeString  = 3
	OptionTypeInteger = 4
	OptionTypeBoolean = 5
	OptionTypeUser    = 6
)

// ApplicationCommand is a slash command definition as registered with
// Discord.
type ApplicationCommand struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`

	// DefaultMemberPermissions restricts who sees the command, as a
	// decimal permission bitfield string. Empty means everyone.
	DefaultMemberPermissions string `json:"default_member_permissions,omitempty"`
}

type CommandOption struct {
	Type        int            `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Required    bool           `json:"required,omitempty"`
	Choices     []OptionChoice `json:"choices,omitempty"`
}

type OptionChoice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// RegisterCommands replaces the application's commands with commands.
// With an empty guildID the commands are global (propagation can take
// up to an hour); otherwise they apply to that guild immediately.
func (client *Client) RegisterCommands(ctx context.Context, applicationID, guildID string, commands []ApplicationCommand) ([]ApplicationCommand, error) {
	authorization, err := client.botAuthorization()
	if err != nil {
		return nil, err
	}
	path := "/applications/" + url.PathEscape(applicationID) + "/commands"
	if guildID != "" {
		path = "/applications/" + url.PathEscape(applicationID) + "/guilds/" + url.PathEscape(guildID) + "/commands"
	}
	if commands == nil {
		commands = []ApplicationCommand{}
	}

	var registered []ApplicationCommand
	err = client.do(ctx, request{
		method:        http.MethodPut,
		path:          path,
		authorization: authorization,
		json:          commands,
	}, &registered)
	if err != nil {
		return nil, err
	}
	return registered, nil
}

// EditOriginalResponse replaces the content of the message created by an
// interaction response, typically after a [Deferred] acknowledgement.
// The interaction token authorizes the call; no bot token is sent. The
// token stays valid for 15 minutes.
func (client *Client) EditOriginalResponse(ctx context.Context, applicationID, interactionToken, content string) error {
	return client.do(ctx, request{
		method: http.MethodPatch,
		path:   "/webhooks/" + url.PathEscape(applicationID) + "/" + url.PathEscape(interactionToken) + "/messages/@original",
		json:   map[string]string{"content": Truncate(content, MaxMessageLength)},
	}, nil)
}
