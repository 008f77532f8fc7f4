// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package guildconfig

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/bureau-foundation/notionbot/lib/clock"
)

// MemoryStore is a Store held in a map. Contents are lost on exit.
type MemoryStore struct {
	mu     sync.Mutex
	guilds map[string]GuildConfig
	clock  clock.Clock
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. A nil clock means real time.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryStore{guilds: make(map[string]GuildConfig), clock: clk}
}

func (m *MemoryStore) Get(_ context.Context, guildID string) (*GuildConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.guilds[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (m *MemoryStore) Save(_ context.Context, cfg *GuildConfig) error {
	if cfg.GuildID == "" {
		return errors.New("guildconfig: guild ID is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UTC()
	row := *cfg
	if row.GuildName == "" {
		row.GuildName = UnknownGuildName
	}
	row.CreatedAt = now
	if existing, ok := m.guilds[cfg.GuildID]; ok {
		row.CreatedAt = existing.CreatedAt
	}
	row.UpdatedAt = now
	m.guilds[cfg.GuildID] = row
	return nil
}

func (m *MemoryStore) UpsertGuild(_ context.Context, guildID, name, userID string) error {
	if guildID == "" {
		return errors.New("guildconfig: guild ID is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UTC()
	row, ok := m.guilds[guildID]
	if !ok {
		row = GuildConfig{GuildID: guildID, GuildName: UnknownGuildName, CreatedAt: now}
	}
	if name != "" {
		row.GuildName = name
	}
	row.DiscordUserID = userID
	row.UpdatedAt = now
	m.guilds[guildID] = row
	return nil
}

func (m *MemoryStore) Reset(_ context.Context, guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.guilds[guildID]
	if !ok {
		return ErrNotFound
	}
	row.NotionAPIKey = ""
	row.NotionDatabaseID = ""
	row.UpdatedAt = m.clock.Now().UTC()
	m.guilds[guildID] = row
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.guilds, guildID)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]GuildConfig, error) {
	return m.filter(func(GuildConfig) bool { return true }), nil
}

func (m *MemoryStore) ListForUser(_ context.Context, userID string) ([]GuildConfig, error) {
	return m.filter(func(row GuildConfig) bool { return row.DiscordUserID == userID }), nil
}

func (m *MemoryStore) Exists(_ context.Context, guildIDs []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]bool, len(guildIDs))
	for _, id := range guildIDs {
		_, result[id] = m.guilds[id]
	}
	return result, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) filter(keep func(GuildConfig) bool) []GuildConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []GuildConfig
	for _, row := range m.guilds {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b GuildConfig) int { return strings.Compare(a.GuildID, b.GuildID) })
	return rows
}
