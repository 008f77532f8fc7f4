// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/notion"
)

var (
	legacyTokenPattern = regexp.MustCompile(`^secret_[a-zA-Z0-9]{40,50}$`)
	tokenPattern       = regexp.MustCompile(`^ntn_[a-zA-Z0-9]{32,}$`)
	databaseIDPattern  = regexp.MustCompile(`^[a-fA-F0-9-]{32,}$`)
)

// ValidateCredentials checks the shape of a Notion integration token
// and database ID before any request is made. databaseID should already
// have been passed through [notion.NormalizeID].
func ValidateCredentials(token, databaseID string) error {
	var errs []error
	if !tokenPattern.MatchString(token) && !legacyTokenPattern.MatchString(token) {
		errs = append(errs, errors.New("the Notion token must start with ntn_ or secret_ followed by letters and digits"))
	}
	if !databaseIDPattern.MatchString(databaseID) {
		errs = append(errs, errors.New("the database ID must be 32 hexadecimal characters, optionally with dashes"))
	}
	return errors.Join(errs...)
}

func (dispatcher *Dispatcher) setup(ctx context.Context, invocation Invocation) Reply {
	if !invocation.CanManage {
		return ephemeral(permissionMessage)
	}
	token := strings.TrimSpace(invocation.Options[OptionNotionToken])
	databaseID := notion.NormalizeID(invocation.Options[OptionNotionDatabaseID])
	if err := ValidateCredentials(token, databaseID); err != nil {
		return ephemeral("❌ " + strings.ReplaceAll(err.Error(), "\n", "\n❌ "))
	}

	client, err := dispatcher.newNotion(token, databaseID)
	if err != nil {
		dispatcher.logger.Error("building notion client failed", "operation", "setup", "guild_id", invocation.GuildID, "error", err)
		return ephemeral("⚠️ " + userMessage(err))
	}
	result, err := client.TestConnection(ctx)
	if err != nil {
		dispatcher.logger.Warn("notion connection test failed",
			"operation", "setup",
			"guild_id", invocation.GuildID,
			"key_fingerprint", guildconfig.Fingerprint(token),
			"error", err,
		)
		return ephemeral("❌ Could not connect to Notion. " + notion.UserMessage(err))
	}

	config, err := dispatcher.store.Get(ctx, invocation.GuildID)
	switch {
	case errors.Is(err, guildconfig.ErrNotFound):
		config = &guildconfig.GuildConfig{GuildID: invocation.GuildID}
	case err != nil:
		dispatcher.logger.Error("loading guild config failed", "operation", "setup", "guild_id", invocation.GuildID, "error", err)
		return ephemeral(configErrorMessage)
	}
	if invocation.GuildName != "" {
		config.GuildName = invocation.GuildName
	}
	if dispatcher.applicationID != "" {
		config.BotClientID = dispatcher.applicationID
	}
	if config.DiscordUserID == "" {
		config.DiscordUserID = invocation.UserID
	}
	config.NotionAPIKey = token
	config.NotionDatabaseID = databaseID

	if err := dispatcher.store.Save(ctx, config); err != nil {
		dispatcher.logger.Error("saving guild config failed", "operation", "setup", "guild_id", invocation.GuildID, "error", err)
		return ephemeral("⚠️ Could not save the settings. Try again in a moment.")
	}
	dispatcher.logger.Info("notion configured",
		"guild_id", invocation.GuildID,
		"user_id", invocation.UserID,
		"database_id", databaseID,
		"key_fingerprint", guildconfig.Fingerprint(token),
	)
	return ephemeral(fmt.Sprintf("✅ Notion settings saved. Connected to database **%s**.", result.Database.Title))
}

func (dispatcher *Dispatcher) showConfig(ctx context.Context, invocation Invocation) Reply {
	if !invocation.CanManage {
		return ephemeral(permissionMessage)
	}
	config, err := dispatcher.store.Get(ctx, invocation.GuildID)
	if errors.Is(err, guildconfig.ErrNotFound) {
		return ephemeral("ℹ️ This server has no Notion configuration yet. Run `/setup` to connect a database.")
	}
	if err != nil {
		dispatcher.logger.Error("loading guild config failed", "operation", "config", "guild_id", invocation.GuildID, "error", err)
		return ephemeral(configErrorMessage)
	}

	token := "not set"
	if config.NotionAPIKey != "" {
		token = "`" + guildconfig.MaskKey(config.NotionAPIKey) + "`"
	}
	database := "not set"
	if config.NotionDatabaseID != "" {
		database = "`" + config.NotionDatabaseID + "`"
	}
	advice := "disabled"
	if dispatcher.advisor.Enabled() {
		advice = "enabled"
		if dispatcher.advisor.Model != "" {
			advice += " (" + dispatcher.advisor.Model + ")"
		}
	}

	lines := []string{
		fmt.Sprintf("⚙️ **Notion settings for %s**", config.GuildName),
		"Notion token: " + token,
		"Database ID: " + database,
		"AI advice: " + advice,
		"Last updated: " + config.UpdatedAt.In(dispatcher.location).Format(time.DateTime),
	}
	if !config.IsComplete() {
		lines = append(lines, "Run `/setup` to finish connecting a database.")
	}
	return ephemeral(strings.Join(lines, "\n"))
}

func (dispatcher *Dispatcher) reset(ctx context.Context, invocation Invocation) Reply {
	if !invocation.CanManage {
		return ephemeral(permissionMessage)
	}
	err := dispatcher.store.Reset(ctx, invocation.GuildID)
	if errors.Is(err, guildconfig.ErrNotFound) {
		return ephemeral("ℹ️ This server has no Notion settings to remove.")
	}
	if err != nil {
		dispatcher.logger.Error("resetting guild config failed", "operation", "reset", "guild_id", invocation.GuildID, "error", err)
		return ephemeral("⚠️ Could not remove the settings. Try again in a moment.")
	}
	dispatcher.logger.Info("notion settings reset", "guild_id", invocation.GuildID, "user_id", invocation.UserID)
	return ephemeral("🗑️ Notion settings removed. Run `/setup` to connect a database again.")
}
