// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package guildconfig

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/zeebo/blake3"
)

// UnknownGuildName is stored when a guild is registered without a name.
const UnknownGuildName = "Unknown Guild"

// ErrNotFound is returned when a guild has no row.
var ErrNotFound = errors.New("guildconfig: guild not found")

// GuildConfig is one guild's row.
type GuildConfig struct {
	GuildID       string
	GuildName     string
	BotClientID   string
	DiscordUserID string

	// NotionAPIKey is plaintext. Never log it; use Fingerprint.
	NotionAPIKey     string
	NotionDatabaseID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsComplete reports whether both Notion fields are set. Task commands
// refuse to run until this holds.
func (c *GuildConfig) IsComplete() bool {
	return c != nil && c.NotionAPIKey != "" && c.NotionDatabaseID != ""
}

// Store persists guild configuration. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns ErrNotFound when the guild has no row.
	Get(ctx context.Context, guildID string) (*GuildConfig, error)

	// Save inserts or replaces the row, keeping CreatedAt of an
	// existing row.
	Save(ctx context.Context, cfg *GuildConfig) error

	// UpsertGuild records that userID manages the guild. An existing
	// row keeps its Notion fields and, when name is empty, its name.
	UpsertGuild(ctx context.Context, guildID, name, userID string) error

	// Reset clears the Notion fields but keeps the row. ErrNotFound
	// when there is no row.
	Reset(ctx context.Context, guildID string) error

	// Delete removes the row. Deleting a missing guild is not an error.
	Delete(ctx context.Context, guildID string) error

	// List returns every row ordered by guild ID.
	List(ctx context.Context) ([]GuildConfig, error)

	// ListForUser returns the rows registered by userID.
	ListForUser(ctx context.Context, userID string) ([]GuildConfig, error)

	// Exists reports, for each guild ID, whether it has a row.
	Exists(ctx context.Context, guildIDs []string) (map[string]bool, error)

	// Ping checks that the store is usable.
	Ping(ctx context.Context) error
}

// Fingerprint returns a short BLAKE3 digest of key for log lines.
// Empty keys fingerprint to "".
func Fingerprint(key string) string {
	if key == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// MaskKey returns key with all but the first and last four characters
// hidden, for display in the dashboard.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "…" + key[len(key)-4:]
}
