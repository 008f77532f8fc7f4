// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bureau-foundation/notionbot/lib/discord"
	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/session"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

// maxBotStatusGuilds bounds one bot-status lookup. Discord caps a user
// at 200 guilds.
const maxBotStatusGuilds = 200

type guildView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon,omitempty"`
	Owner      bool   `json:"owner"`
	HasBot     bool   `json:"hasBot"`
	Configured bool   `json:"configured"`
	InviteURL  string `json:"inviteUrl"`
}

type guildConfigView struct {
	GuildID          string    `json:"guildId"`
	GuildName        string    `json:"guildName"`
	BotClientID      string    `json:"botClientId,omitempty"`
	DiscordUserID    string    `json:"discordUserId,omitempty"`
	NotionAPIKey     string    `json:"notionApiKey,omitempty"`
	NotionDatabaseID string    `json:"notionDatabaseId,omitempty"`
	Configured       bool      `json:"configured"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// configView never carries the plaintext key.
func configView(cfg *guildconfig.GuildConfig) guildConfigView {
	return guildConfigView{
		GuildID:          cfg.GuildID,
		GuildName:        cfg.GuildName,
		BotClientID:      cfg.BotClientID,
		DiscordUserID:    cfg.DiscordUserID,
		NotionAPIKey:     guildconfig.MaskKey(cfg.NotionAPIKey),
		NotionDatabaseID: cfg.NotionDatabaseID,
		Configured:       cfg.IsComplete(),
		CreatedAt:        cfg.CreatedAt,
		UpdatedAt:        cfg.UpdatedAt,
	}
}

// manageableGuilds asks Discord, with the user's own token, which
// guilds the user may manage.
func (s *server) manageableGuilds(ctx context.Context, user session.User) ([]discord.Guild, error) {
	if user.AccessToken == "" {
		return nil, errDiscordSessionExpired
	}
	accessToken, err := s.secrets.Open(user.AccessToken)
	if err != nil {
		s.logger.Warn("opening session access token failed", "user_id", user.ID, "error", err)
		return nil, errDiscordSessionExpired
	}
	guilds, err := s.discord.CurrentUserGuilds(ctx, accessToken)
	if discord.IsUnauthorized(err) {
		return nil, errDiscordSessionExpired
	}
	if err != nil {
		return nil, err
	}
	return discord.ManageableGuilds(guilds), nil
}

// authorizeGuild succeeds when user registered the guild or currently
// manages it on Discord.
func (s *server) authorizeGuild(ctx context.Context, user session.User, guildID string) error {
	if guildID == "" {
		return invalidRequest("A guild ID is required.")
	}
	cfg, err := s.store.Get(ctx, guildID)
	switch {
	case err == nil && cfg.DiscordUserID == user.ID:
		return nil
	case err != nil && !errors.Is(err, guildconfig.ErrNotFound):
		return err
	}

	guilds, err := s.manageableGuilds(ctx, user)
	if err != nil {
		return err
	}
	for _, guild := range guilds {
		if guild.ID == guildID {
			return nil
		}
	}
	return errForbiddenGuild
}

func (s *server) handleListGuilds(w http.ResponseWriter, r *http.Request, user session.User) {
	ctx := r.Context()
	guilds, err := s.manageableGuilds(ctx, user)
	if err != nil {
		s.writeError(w, r, "list-guilds", err)
		return
	}

	ids := make([]string, len(guilds))
	for i, guild := range guilds {
		ids[i] = guild.ID
	}
	exists, err := s.store.Exists(ctx, ids)
	if err != nil {
		s.writeError(w, r, "list-guilds", err)
		return
	}

	views := make([]guildView, len(guilds))
	for i, guild := range guilds {
		view := guildView{
			ID:        guild.ID,
			Name:      guild.Name,
			Icon:      guild.Icon,
			Owner:     guild.Owner,
			HasBot:    exists[guild.ID],
			InviteURL: discord.BotInviteURL(s.oauth.ClientID, guild.ID),
		}
		if view.HasBot {
			cfg, err := s.store.Get(ctx, guild.ID)
			if err != nil && !errors.Is(err, guildconfig.ErrNotFound) {
				s.writeError(w, r, "list-guilds", err)
				return
			}
			view.Configured = cfg.IsComplete()
		}
		views[i] = view
	}
	writeData(w, http.StatusOK, views)
}

type guildBody struct {
	GuildID   string `json:"guildId"`
	GuildName string `json:"guildName"`
}

func (s *server) handleUpsertGuild(w http.ResponseWriter, r *http.Request, user session.User) {
	var body guildBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "upsert-guild", err)
		return
	}
	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, body.GuildID); err != nil {
		s.writeError(w, r, "upsert-guild", err)
		return
	}
	cfg, err := s.registerGuild(ctx, user, body)
	if err != nil {
		s.writeError(w, r, "upsert-guild", err)
		return
	}
	writeData(w, http.StatusOK, configView(cfg))
}

func (s *server) registerGuild(ctx context.Context, user session.User, body guildBody) (*guildconfig.GuildConfig, error) {
	if err := s.store.UpsertGuild(ctx, body.GuildID, strings.TrimSpace(body.GuildName), user.ID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, body.GuildID)
}

// handleBotStatus reports, per guild ID, whether the guild has a row.
func (s *server) handleBotStatus(w http.ResponseWriter, r *http.Request, user session.User) {
	var body struct {
		GuildIDs []string `json:"guildIds"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "bot-status", err)
		return
	}
	switch {
	case len(body.GuildIDs) == 0:
		s.writeError(w, r, "bot-status", invalidRequest("guildIds must be a non-empty array."))
		return
	case len(body.GuildIDs) > maxBotStatusGuilds:
		s.writeError(w, r, "bot-status", invalidRequest("At most %d guild IDs may be checked at once.", maxBotStatusGuilds))
		return
	}
	exists, err := s.store.Exists(r.Context(), body.GuildIDs)
	if err != nil {
		s.writeError(w, r, "bot-status", err)
		return
	}
	writeData(w, http.StatusOK, exists)
}

// handleBotCallback records the guild after the invite flow, once
// Discord confirms the bot actually joined.
func (s *server) handleBotCallback(w http.ResponseWriter, r *http.Request, user session.User) {
	var body guildBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "bot-callback", err)
		return
	}
	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, body.GuildID); err != nil {
		s.writeError(w, r, "bot-callback", err)
		return
	}
	member, err := s.discord.IsGuildMember(ctx, body.GuildID, s.applicationID)
	if err != nil {
		s.writeError(w, r, "bot-callback", err)
		return
	}
	if !member {
		s.writeError(w, r, "bot-callback", errBotNotInGuild)
		return
	}

	cfg, err := s.registerGuild(ctx, user, body)
	if err != nil {
		s.writeError(w, r, "bot-callback", err)
		return
	}
	if cfg.BotClientID != s.applicationID {
		cfg.BotClientID = s.applicationID
		if err := s.store.Save(ctx, cfg); err != nil {
			s.writeError(w, r, "bot-callback", err)
			return
		}
	}
	s.logger.Info("bot added to guild", "guild_id", cfg.GuildID, "user_id", user.ID)
	writeData(w, http.StatusOK, configView(cfg))
}

func (s *server) handleGetGuild(w http.ResponseWriter, r *http.Request, user session.User) {
	guildID := r.PathValue("id")
	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, guildID); err != nil {
		s.writeError(w, r, "get-guild", err)
		return
	}
	cfg, err := s.store.Get(ctx, guildID)
	if err != nil {
		s.writeError(w, r, "get-guild", err)
		return
	}
	writeData(w, http.StatusOK, configView(cfg))
}

// handleSetNotion validates and tests the credentials before anything
// is stored.
func (s *server) handleSetNotion(w http.ResponseWriter, r *http.Request, user session.User) {
	guildID := r.PathValue("id")
	var body struct {
		APIKey     string `json:"apiKey"`
		DatabaseID string `json:"databaseId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "set-notion", err)
		return
	}
	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, guildID); err != nil {
		s.writeError(w, r, "set-notion", err)
		return
	}

	apiKey := strings.TrimSpace(body.APIKey)
	databaseID := notion.NormalizeID(body.DatabaseID)
	if err := taskbot.ValidateCredentials(apiKey, databaseID); err != nil {
		s.writeError(w, r, "set-notion", &apiError{
			status:  http.StatusBadRequest,
			code:    "validation-error",
			message: "The Notion credentials are malformed.",
			details: strings.Split(err.Error(), "\n"),
		})
		return
	}
	result, err := s.testConnection(ctx, apiKey, databaseID)
	if err != nil {
		s.writeError(w, r, "set-notion", err)
		return
	}

	cfg, err := s.store.Get(ctx, guildID)
	switch {
	case errors.Is(err, guildconfig.ErrNotFound):
		cfg = &guildconfig.GuildConfig{GuildID: guildID, GuildName: guildconfig.UnknownGuildName}
	case err != nil:
		s.writeError(w, r, "set-notion", err)
		return
	}
	if cfg.DiscordUserID == "" {
		cfg.DiscordUserID = user.ID
	}
	cfg.NotionAPIKey = apiKey
	cfg.NotionDatabaseID = databaseID
	if err := s.store.Save(ctx, cfg); err != nil {
		s.writeError(w, r, "set-notion", err)
		return
	}
	s.logger.Info("notion configured",
		"guild_id", guildID,
		"user_id", user.ID,
		"database_id", databaseID,
		"key_fingerprint", guildconfig.Fingerprint(apiKey),
	)

	saved, err := s.store.Get(ctx, guildID)
	if err != nil {
		s.writeError(w, r, "set-notion", err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"guild":    configView(saved),
		"database": result.Database,
	})
}

func (s *server) testConnection(ctx context.Context, apiKey, databaseID string) (*notion.ConnectionResult, error) {
	client, err := s.newNotion(apiKey, databaseID)
	if err != nil {
		return nil, err
	}
	return client.TestConnection(ctx)
}

func (s *server) handleInvite(w http.ResponseWriter, r *http.Request, user session.User) {
	guildID := r.PathValue("id")
	if err := s.authorizeGuild(r.Context(), user, guildID); err != nil {
		s.writeError(w, r, "invite", err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"url": discord.BotInviteURL(s.oauth.ClientID, guildID)})
}

// handleAdvice returns advice for one assignee's open tasks, both as
// Markdown and rendered HTML.
func (s *server) handleAdvice(w http.ResponseWriter, r *http.Request, user session.User) {
	guildID := r.PathValue("id")
	var body struct {
		Assignee string `json:"assignee"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "advice", err)
		return
	}
	assignee := strings.TrimSpace(body.Assignee)
	if assignee == "" {
		assignee = user.Name
	}
	if !s.advisor.Enabled() {
		s.writeError(w, r, "advice", taskbot.ErrNoAdvisor)
		return
	}

	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, guildID); err != nil {
		s.writeError(w, r, "advice", err)
		return
	}
	client, err := s.guildClient(ctx, guildID)
	if err != nil {
		s.writeError(w, r, "advice", err)
		return
	}
	tasks, err := client.GetTasks(ctx, notion.StatusNotEquals(notion.StatusDone))
	if err != nil {
		s.writeError(w, r, "advice", err)
		return
	}

	selected := taskbot.OpenTasksFor(tasks, assignee, time.UTC)
	result := map[string]any{"assignee": assignee, "taskCount": len(selected)}
	if len(selected) == 0 {
		result["markdown"] = ""
		result["html"] = ""
		writeData(w, http.StatusOK, result)
		return
	}
	advice, err := s.advisor.AdviseAssignee(ctx, assignee, selected)
	if err != nil {
		s.writeError(w, r, "advice", err)
		return
	}
	rendered, err := taskbot.RenderAdviceHTML(advice)
	if err != nil {
		s.writeError(w, r, "advice", err)
		return
	}
	result["markdown"] = advice
	result["html"] = rendered
	writeData(w, http.StatusOK, result)
}
