// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/notionbot/lib/clock"
	"github.com/bureau-foundation/notionbot/lib/config"
	"github.com/bureau-foundation/notionbot/lib/discord"
	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/httpmw"
	"github.com/bureau-foundation/notionbot/lib/llm"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/process"
	"github.com/bureau-foundation/notionbot/lib/sealed"
	"github.com/bureau-foundation/notionbot/lib/secret"
	"github.com/bureau-foundation/notionbot/lib/service"
	"github.com/bureau-foundation/notionbot/lib/session"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
	"github.com/bureau-foundation/notionbot/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("notionbot-service", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to the YAML config (default: $"+config.EnvVar+")")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print("notionbot-service")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keypair, err := loadIdentity(cfg.Secrets.IdentityFile)
	if err != nil {
		return err
	}
	defer keypair.Close()
	secrets, err := guildconfig.NewSealedSecrets(keypair, cfg.Secrets.Recipients...)
	if err != nil {
		return err
	}

	store, err := guildconfig.OpenSQLite(guildconfig.SQLiteConfig{
		Path:     cfg.Store.Path,
		PoolSize: cfg.Store.PoolSize,
		Secrets:  secrets,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	signingKey, err := session.LoadKey(cfg.Session.KeyFile)
	if err != nil {
		return fmt.Errorf("loading session key: %w", err)
	}
	sessions, err := session.NewManager(session.Config{PrivateKey: signingKey, TTL: cfg.Session.TTL})
	if err != nil {
		return err
	}

	discordClient, err := discord.NewClient(discord.Config{
		BotToken: cfg.Discord.BotToken,
		BaseURL:  cfg.Discord.APIBaseURL,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	publicKey, err := discord.ParsePublicKey(cfg.Discord.PublicKey)
	if err != nil {
		return err
	}

	advisor, err := newAdvisor(cfg.LLM)
	if err != nil {
		return err
	}
	trustedProxies, err := httpmw.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return err
	}

	srv, err := newServer(serverConfig{
		Store:         store,
		Secrets:       secrets,
		Sessions:      sessions,
		Discord:       discordClient,
		PublicKey:     publicKey,
		ApplicationID: cfg.Discord.ApplicationID,
		OAuth: discord.OAuth{
			ClientID:     cfg.Discord.ClientID,
			ClientSecret: cfg.Discord.ClientSecret,
			RedirectURI:  cfg.Discord.RedirectURI,
		},
		PublicURL:     cfg.HTTP.PublicURL,
		CookieName:    cfg.Session.CookieName,
		SecureCookies: cfg.Session.Secure,
		BotSecret:     []byte(cfg.BotAPI.Secret),
		NewNotion:     newNotionFactory(cfg.Notion, logger),
		Advisor:       advisor,
		APILimiter: httpmw.NewLimiter(httpmw.LimiterConfig{
			Name:           "api",
			Limit:          cfg.RateLimit.API.Requests,
			Window:         cfg.RateLimit.API.Window,
			TrustedProxies: trustedProxies,
			Logger:         logger,
		}),
		BotLimiter: httpmw.NewLimiter(httpmw.LimiterConfig{
			Name:           "bot",
			Limit:          cfg.RateLimit.Bot.Requests,
			Window:         cfg.RateLimit.Bot.Window,
			TrustedProxies: trustedProxies,
			Logger:         logger,
		}),
		Environment: string(cfg.Environment),
		Clock:       clock.Real(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         cfg.HTTP.Listen,
		Handler:         srv.routes(),
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
	})
	httpDone := make(chan error, 1)
	go func() {
		httpDone <- httpServer.Serve(ctx)
	}()

	select {
	case <-httpServer.Ready():
		logger.Info("notionbot service running",
			"address", httpServer.Addr().String(),
			"environment", cfg.Environment,
			"public_url", cfg.HTTP.PublicURL,
			"advice", advisor.Enabled(),
			"version", version.Info(),
		)
	case err := <-httpDone:
		return err
	}

	httpErr := <-httpDone
	// Deferred interaction replies are still being edited in after
	// the listener closes.
	if !srv.waitFollowups(cfg.HTTP.ShutdownTimeout) {
		logger.Warn("abandoning unfinished interaction follow-ups")
	}
	return httpErr
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func loadIdentity(path string) (*sealed.Keypair, error) {
	buffer, err := secret.ReadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("reading age identity: %w", err)
	}
	keypair, err := sealed.LoadKeypair(buffer)
	if err != nil {
		buffer.Close()
		return nil, fmt.Errorf("loading age identity from %s: %w", path, err)
	}
	return keypair, nil
}

// newAdvisor returns nil when no LLM key is configured, which disables
// advice everywhere.
func newAdvisor(cfg config.LLMConfig) (*taskbot.Advisor, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	provider, err := llm.New(cfg.Provider, llm.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}
	return &taskbot.Advisor{Provider: provider, Model: cfg.Model, MaxTokens: cfg.MaxTokens}, nil
}

// newNotionFactory builds a client per guild request. Clients are
// stateless, so nothing is cached.
func newNotionFactory(cfg config.NotionConfig, logger *slog.Logger) notionFactory {
	policy := notion.RetryPolicy{
		MaxAttempts:   cfg.MaxAttempts,
		BaseDelay:     cfg.BaseDelay,
		MaxRetryAfter: cfg.MaxRetryAfter,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Info("retrying notion request", "attempt", attempt, "delay", delay, "error", err)
		},
	}
	return func(apiKey, databaseID string) (notionClient, error) {
		client, err := notion.NewClient(notion.Config{
			APIKey:     apiKey,
			DatabaseID: databaseID,
			BaseURL:    cfg.BaseURL,
			Version:    cfg.Version,
			Logger:     logger,
			Retry:      policy,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
