// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"strconv"
)

// Permission bits checked by the dashboard.
const (
	PermissionAdministrator uint64 = 1 << 3
	PermissionManageGuild   uint64 = 1 << 5
)

// User is a Discord user.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Discriminator string `json:"discriminator,omitempty"`
}

// DisplayName prefers the global display name over the username.
func (u *User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Guild is a partial guild as returned by /users/@me/guilds.
type Guild struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon,omitempty"`
	Owner       bool     `json:"owner"`
	Permissions string   `json:"permissions"`
	Features    []string `json:"features,omitempty"`
}

// CanManage reports whether the user may configure the bot in this
// guild: owners, administrators and holders of Manage Server.
func (g *Guild) CanManage() bool {
	if g.Owner {
		return true
	}
	permissions, err := strconv.ParseUint(g.Permissions, 10, 64)
	if err != nil {
		return false
	}
	return permissions&(PermissionAdministrator|PermissionManageGuild) != 0
}

// ManageableGuilds filters guilds to those CanManage accepts.
func ManageableGuilds(guilds []Guild) []Guild {
	var result []Guild
	for i := range guilds {
		if guilds[i].CanManage() {
			result = append(result, guilds[i])
		}
	}
	return result
}
