// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package guildconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/notionbot/lib/clock"
	"github.com/bureau-foundation/notionbot/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS guilds (
	guild_id           TEXT PRIMARY KEY,
	guild_name         TEXT NOT NULL,
	bot_client_id      TEXT NOT NULL DEFAULT '',
	discord_user_id    TEXT NOT NULL DEFAULT '',
	notion_api_key     TEXT,
	notion_database_id TEXT,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS guilds_discord_user_id ON guilds (discord_user_id);
`

const selectColumns = `SELECT guild_id, guild_name, bot_client_id, discord_user_id,
	notion_api_key, notion_database_id, created_at, updated_at FROM guilds`

// SQLiteConfig configures a SQLiteStore. Path and Secrets are required.
type SQLiteConfig struct {
	Path     string
	PoolSize int
	Secrets  SecretProvider
	Clock    clock.Clock
	Logger   *slog.Logger
}

// SQLiteStore is the persistent Store.
type SQLiteStore struct {
	pool    *sqlitepool.Pool
	secrets SecretProvider
	clock   clock.Clock
	logger  *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the guild database. The caller
// must Close the store.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Secrets == nil {
		return nil, errors.New("guildconfig: Secrets is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Schema:   schema,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("guildconfig: %w", err)
	}
	return &SQLiteStore{pool: pool, secrets: cfg.Secrets, clock: clk, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, guildID string) (*GuildConfig, error) {
	var found *GuildConfig
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, selectColumns+` WHERE guild_id = ?`, &sqlitex.ExecOptions{
			Args: []any{guildID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				row, err := s.scan(stmt)
				if err != nil {
					return err
				}
				found = row
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("guildconfig: get %s: %w", guildID, err)
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *SQLiteStore) Save(ctx context.Context, cfg *GuildConfig) error {
	if cfg.GuildID == "" {
		return errors.New("guildconfig: guild ID is required")
	}
	sealedKey, err := s.seal(cfg.NotionAPIKey)
	if err != nil {
		return err
	}
	name := cfg.GuildName
	if name == "" {
		name = UnknownGuildName
	}
	now := formatTime(s.clock.Now())

	err = s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO guilds (guild_id, guild_name, bot_client_id, discord_user_id,
				notion_api_key, notion_database_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (guild_id) DO UPDATE SET
				guild_name = excluded.guild_name,
				bot_client_id = excluded.bot_client_id,
				discord_user_id = excluded.discord_user_id,
				notion_api_key = excluded.notion_api_key,
				notion_database_id = excluded.notion_database_id,
				updated_at = excluded.updated_at`,
			&sqlitex.ExecOptions{Args: []any{
				cfg.GuildID, name, cfg.BotClientID, cfg.DiscordUserID,
				sealedKey, nullable(cfg.NotionDatabaseID), now, now,
			}})
	})
	if err != nil {
		return fmt.Errorf("guildconfig: save %s: %w", cfg.GuildID, err)
	}
	s.logger.Info("guild config saved",
		"guild_id", cfg.GuildID,
		"notion_key", Fingerprint(cfg.NotionAPIKey),
		"database_id", cfg.NotionDatabaseID,
	)
	return nil
}

func (s *SQLiteStore) UpsertGuild(ctx context.Context, guildID, name, userID string) error {
	if guildID == "" {
		return errors.New("guildconfig: guild ID is required")
	}
	now := formatTime(s.clock.Now())
	insertName := name
	if insertName == "" {
		insertName = UnknownGuildName
	}

	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO guilds (guild_id, guild_name, discord_user_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (guild_id) DO UPDATE SET
				guild_name = CASE WHEN ? = '' THEN guild_name ELSE excluded.guild_name END,
				discord_user_id = excluded.discord_user_id,
				updated_at = excluded.updated_at`,
			&sqlitex.ExecOptions{Args: []any{guildID, insertName, userID, now, now, name}})
	})
	if err != nil {
		return fmt.Errorf("guildconfig: upsert %s: %w", guildID, err)
	}
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context, guildID string) error {
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `
			UPDATE guilds SET notion_api_key = NULL, notion_database_id = NULL, updated_at = ?
			WHERE guild_id = ?`,
			&sqlitex.ExecOptions{Args: []any{formatTime(s.clock.Now()), guildID}})
		if err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("guildconfig: reset %s: %w", guildID, err)
	}
	s.logger.Info("guild config reset", "guild_id", guildID)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, guildID string) error {
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `DELETE FROM guilds WHERE guild_id = ?`,
			&sqlitex.ExecOptions{Args: []any{guildID}})
	})
	if err != nil {
		return fmt.Errorf("guildconfig: delete %s: %w", guildID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]GuildConfig, error) {
	return s.list(ctx, selectColumns+` ORDER BY guild_id`)
}

func (s *SQLiteStore) ListForUser(ctx context.Context, userID string) ([]GuildConfig, error) {
	return s.list(ctx, selectColumns+` WHERE discord_user_id = ? ORDER BY guild_id`, userID)
}

func (s *SQLiteStore) Exists(ctx context.Context, guildIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(guildIDs))
	for _, id := range guildIDs {
		result[id] = false
	}
	if len(guildIDs) == 0 {
		return result, nil
	}
	encoded, err := json.Marshal(guildIDs)
	if err != nil {
		return nil, fmt.Errorf("guildconfig: encoding guild IDs: %w", err)
	}

	err = s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT guild_id FROM guilds WHERE guild_id IN (SELECT value FROM json_each(?))`,
			&sqlitex.ExecOptions{
				Args: []any{string(encoded)},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					result[stmt.ColumnText(0)] = true
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("guildconfig: exists: %w", err)
	}
	return result, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT 1 FROM guilds LIMIT 1`, nil)
	})
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]GuildConfig, error) {
	var rows []GuildConfig
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				row, err := s.scan(stmt)
				if err != nil {
					return err
				}
				rows = append(rows, *row)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("guildconfig: list: %w", err)
	}
	return rows, nil
}

func (s *SQLiteStore) scan(stmt *sqlite.Stmt) (*GuildConfig, error) {
	row := &GuildConfig{
		GuildID:          stmt.ColumnText(0),
		GuildName:        stmt.ColumnText(1),
		BotClientID:      stmt.ColumnText(2),
		DiscordUserID:    stmt.ColumnText(3),
		NotionDatabaseID: stmt.ColumnText(5),
		CreatedAt:        parseTime(stmt.ColumnText(6)),
		UpdatedAt:        parseTime(stmt.ColumnText(7)),
	}
	if stored := stmt.ColumnText(4); stored != "" {
		key, err := s.secrets.Open(stored)
		if err != nil {
			s.logger.Error("cannot open stored notion key", "guild_id", row.GuildID, "error", err)
			return nil, err
		}
		row.NotionAPIKey = key
	}
	return row, nil
}

func (s *SQLiteStore) seal(key string) (any, error) {
	if key == "" {
		return nil, nil
	}
	stored, err := s.secrets.Seal(key)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
