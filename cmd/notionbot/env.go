// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/notionbot/lib/config"
	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/sealed"
	"github.com/bureau-foundation/notionbot/lib/secret"
)

// loadConfig reads the config without the service's full validation:
// each command checks only the fields it needs.
func (opts *globalOptions) loadConfig() (*config.Config, *slog.Logger, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: max(level, slog.LevelWarn)}))
	return cfg, logger, nil
}

// storeEnv is an open guild store with the key that unseals it.
type storeEnv struct {
	config  *config.Config
	logger  *slog.Logger
	keypair *sealed.Keypair
	store   *guildconfig.SQLiteStore
}

func (opts *globalOptions) openStore() (*storeEnv, error) {
	cfg, logger, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Secrets.IdentityFile == "" {
		return nil, errors.New("secrets.identity_file is not set; run 'notionbot keygen' first")
	}

	buffer, err := secret.ReadFromPath(cfg.Secrets.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("reading age identity: %w", err)
	}
	keypair, err := sealed.LoadKeypair(buffer)
	if err != nil {
		buffer.Close()
		return nil, fmt.Errorf("loading age identity from %s: %w", cfg.Secrets.IdentityFile, err)
	}
	secrets, err := guildconfig.NewSealedSecrets(keypair, cfg.Secrets.Recipients...)
	if err != nil {
		keypair.Close()
		return nil, err
	}
	store, err := guildconfig.OpenSQLite(guildconfig.SQLiteConfig{
		Path:     cfg.Store.Path,
		PoolSize: cfg.Store.PoolSize,
		Secrets:  secrets,
		Logger:   logger,
	})
	if err != nil {
		keypair.Close()
		return nil, err
	}
	return &storeEnv{config: cfg, logger: logger, keypair: keypair, store: store}, nil
}

func (env *storeEnv) Close() {
	env.store.Close()
	env.keypair.Close()
}

// notionClient builds a client from the service's Notion settings and
// the given credentials.
func (env *storeEnv) notionClient(apiKey, databaseID string) (*notion.Client, error) {
	return notion.NewClient(notion.Config{
		APIKey:     apiKey,
		DatabaseID: databaseID,
		BaseURL:    env.config.Notion.BaseURL,
		Version:    env.config.Notion.Version,
		Logger:     env.logger,
		Retry: notion.RetryPolicy{
			MaxAttempts:   env.config.Notion.MaxAttempts,
			BaseDelay:     env.config.Notion.BaseDelay,
			MaxRetryAfter: env.config.Notion.MaxRetryAfter,
		},
	})
}

// guildClient loads a guild's credentials and builds its client.
func (env *storeEnv) guildClient(ctx context.Context, guildID string) (*guildconfig.GuildConfig, *notion.Client, error) {
	cfg, err := env.store.Get(ctx, guildID)
	if errors.Is(err, guildconfig.ErrNotFound) {
		return nil, nil, fmt.Errorf("guild %s is not registered", guildID)
	}
	if err != nil {
		return nil, nil, err
	}
	if !cfg.IsComplete() {
		return cfg, nil, fmt.Errorf("guild %s has no Notion credentials; run 'notionbot set-notion --guild %s'", guildID, guildID)
	}
	client, err := env.notionClient(cfg.NotionAPIKey, cfg.NotionDatabaseID)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, client, nil
}
