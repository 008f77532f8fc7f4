// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/httpmw"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/service"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

var errBotUnauthenticated = &apiError{
	status:  http.StatusUnauthorized,
	code:    "unauthenticated",
	message: "Invalid bot API credentials.",
}

// withBotSecret requires the shared bearer secret used by external bot
// processes.
func (s *server) withBotSecret(handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := service.VerifyBearer(s.botSecret, r.Header.Get("Authorization")); err != nil {
			s.logger.Warn("bot api request rejected", "remote_ip", httpmw.ClientIP(r), "error", err)
			s.writeError(w, r, "bot-auth", errBotUnauthenticated)
			return
		}
		handler(w, r)
	})
}

// botConfig is the wire shape shared with external bots. The key is
// plaintext: callers are trusted holders of the bot secret.
type botConfig struct {
	NotionAPIKey     string `json:"notion_api_key"`
	NotionDatabaseID string `json:"notion_database_id"`
}

func (s *server) handleBotGetConfig(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("id")
	cfg, err := s.store.Get(r.Context(), guildID)
	if err != nil {
		s.writeError(w, r, "bot-get-config", err)
		return
	}
	writeData(w, http.StatusOK, botConfig{
		NotionAPIKey:     cfg.NotionAPIKey,
		NotionDatabaseID: cfg.NotionDatabaseID,
	})
}

func (s *server) handleBotPutConfig(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("id")
	var body botConfig
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "bot-put-config", err)
		return
	}
	apiKey := strings.TrimSpace(body.NotionAPIKey)
	databaseID := notion.NormalizeID(body.NotionDatabaseID)
	if apiKey == "" || databaseID == "" {
		s.writeError(w, r, "bot-put-config", invalidRequest("notion_api_key and notion_database_id are required."))
		return
	}
	if err := taskbot.ValidateCredentials(apiKey, databaseID); err != nil {
		s.writeError(w, r, "bot-put-config", &apiError{
			status:  http.StatusBadRequest,
			code:    "validation-error",
			message: "The Notion credentials are malformed.",
			details: strings.Split(err.Error(), "\n"),
		})
		return
	}

	ctx := r.Context()
	cfg, err := s.store.Get(ctx, guildID)
	switch {
	case errors.Is(err, guildconfig.ErrNotFound):
		cfg = &guildconfig.GuildConfig{GuildID: guildID, GuildName: guildconfig.UnknownGuildName}
	case err != nil:
		s.writeError(w, r, "bot-put-config", err)
		return
	}
	cfg.NotionAPIKey = apiKey
	cfg.NotionDatabaseID = databaseID
	if err := s.store.Save(ctx, cfg); err != nil {
		s.writeError(w, r, "bot-put-config", err)
		return
	}
	s.logger.Info("notion configured by bot api",
		"guild_id", guildID,
		"database_id", databaseID,
		"key_fingerprint", guildconfig.Fingerprint(apiKey),
	)
	writeData(w, http.StatusOK, map[string]string{"guildId": guildID})
}

func (s *server) handleBotResetConfig(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("id")
	if err := s.store.Reset(r.Context(), guildID); err != nil {
		s.writeError(w, r, "bot-reset-config", err)
		return
	}
	s.logger.Info("notion settings reset by bot api", "guild_id", guildID)
	writeData(w, http.StatusOK, map[string]string{"guildId": guildID})
}

// handleBotCheckConfig never 404s: a missing guild is simply not
// configured.
func (s *server) handleBotCheckConfig(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("id")
	cfg, err := s.store.Get(r.Context(), guildID)
	if err != nil && !errors.Is(err, guildconfig.ErrNotFound) {
		s.writeError(w, r, "bot-check-config", err)
		return
	}
	result := map[string]any{
		"guildId":       guildID,
		"isComplete":    cfg.IsComplete(),
		"hasNotionKey":  false,
		"hasDatabaseId": false,
	}
	if cfg != nil {
		result["hasNotionKey"] = cfg.NotionAPIKey != ""
		result["hasDatabaseId"] = cfg.NotionDatabaseID != ""
	}
	writeData(w, http.StatusOK, result)
}
