// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/bureau-foundation/notionbot/lib/clock"
	"github.com/bureau-foundation/notionbot/lib/discord"
	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/httpmw"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/session"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

// defaultDeferAfter leaves a second of Discord's three-second window
// for the response to travel.
const defaultDeferAfter = 2 * time.Second

// notionClient is the part of *notion.Client the service uses.
type notionClient interface {
	taskbot.NotionClient
	GetTask(ctx context.Context, taskID string) (*notion.Task, error)
	UpdateTask(ctx context.Context, taskID string, input notion.TaskInput) (*notion.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

type notionFactory func(apiKey, databaseID string) (notionClient, error)

type serverConfig struct {
	Store guildconfig.Store

	// Secrets seals the Discord access token carried in the session.
	Secrets guildconfig.SecretProvider

	Sessions      *session.Manager
	Discord       *discord.Client
	OAuth         discord.OAuth
	PublicKey     ed25519.PublicKey
	ApplicationID string

	// PublicURL is where the browser is sent after login.
	PublicURL     string
	CookieName    string
	SecureCookies bool

	BotSecret []byte
	NewNotion notionFactory
	Advisor   *taskbot.Advisor

	APILimiter *httpmw.Limiter
	BotLimiter *httpmw.Limiter

	// DeferAfter is how long an interaction may run before it is
	// acknowledged with a deferred response. Defaults to 2s.
	DeferAfter time.Duration

	Environment string
	Clock       clock.Clock
	Logger      *slog.Logger
}

type server struct {
	store         guildconfig.Store
	secrets       guildconfig.SecretProvider
	sessions      *session.Manager
	discord       *discord.Client
	oauth         discord.OAuth
	publicKey     ed25519.PublicKey
	applicationID string
	publicURL     string
	cookieName    string
	secureCookies bool
	botSecret     []byte
	newNotion     notionFactory
	advisor       *taskbot.Advisor
	dispatcher    *taskbot.Dispatcher
	apiLimiter    *httpmw.Limiter
	botLimiter    *httpmw.Limiter
	deferAfter    time.Duration
	environment   string
	clock         clock.Clock
	logger        *slog.Logger
	started       time.Time

	// followups tracks interactions still running after a deferred
	// acknowledgement.
	followups sync.WaitGroup
}

func newServer(cfg serverConfig) (*server, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("server: Store is required")
	case cfg.Secrets == nil:
		return nil, errors.New("server: Secrets is required")
	case cfg.Sessions == nil:
		return nil, errors.New("server: Sessions is required")
	case cfg.Discord == nil:
		return nil, errors.New("server: Discord is required")
	case len(cfg.PublicKey) != ed25519.PublicKeySize:
		return nil, errors.New("server: PublicKey is required")
	case cfg.NewNotion == nil:
		return nil, errors.New("server: NewNotion is required")
	case len(cfg.BotSecret) == 0:
		return nil, errors.New("server: BotSecret is required")
	case cfg.APILimiter == nil || cfg.BotLimiter == nil:
		return nil, errors.New("server: APILimiter and BotLimiter are required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "notionbot_session"
	}
	if cfg.DeferAfter <= 0 {
		cfg.DeferAfter = defaultDeferAfter
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	newNotion := cfg.NewNotion
	dispatcher, err := taskbot.New(taskbot.Config{
		Store: cfg.Store,
		NewNotion: func(apiKey, databaseID string) (taskbot.NotionClient, error) {
			client, err := newNotion(apiKey, databaseID)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		Advisor:       cfg.Advisor,
		ApplicationID: cfg.ApplicationID,
		Clock:         cfg.Clock,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &server{
		store:         cfg.Store,
		secrets:       cfg.Secrets,
		sessions:      cfg.Sessions,
		discord:       cfg.Discord,
		oauth:         cfg.OAuth,
		publicKey:     cfg.PublicKey,
		applicationID: cfg.ApplicationID,
		publicURL:     cfg.PublicURL,
		cookieName:    cfg.CookieName,
		secureCookies: cfg.SecureCookies,
		botSecret:     cfg.BotSecret,
		newNotion:     cfg.NewNotion,
		advisor:       cfg.Advisor,
		dispatcher:    dispatcher,
		apiLimiter:    cfg.APILimiter,
		botLimiter:    cfg.BotLimiter,
		deferAfter:    cfg.DeferAfter,
		environment:   cfg.Environment,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
		started:       cfg.Clock.Now(),
	}, nil
}

// routes builds the full handler. Interactions and health probes skip
// rate limiting and compression: Discord expects a plain, fast answer.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /interactions", s.handleInteraction)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	dashboard := func(handler http.Handler) http.Handler {
		return gzhttp.GzipHandler(httpmw.RateLimit(s.apiLimiter)(handler))
	}
	authenticated := func(handler sessionHandler) http.Handler {
		return dashboard(s.withSession(handler))
	}
	bot := func(handler http.HandlerFunc) http.Handler {
		return gzhttp.GzipHandler(httpmw.RateLimit(s.botLimiter)(s.withBotSecret(handler)))
	}

	mux.Handle("GET /api/auth/login", dashboard(http.HandlerFunc(s.handleLogin)))
	mux.Handle("GET /api/auth/callback", dashboard(http.HandlerFunc(s.handleCallback)))
	mux.Handle("POST /api/auth/logout", dashboard(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /api/auth/me", authenticated(s.handleMe))

	mux.Handle("GET /api/guilds", authenticated(s.handleListGuilds))
	mux.Handle("POST /api/guilds", authenticated(s.handleUpsertGuild))
	mux.Handle("POST /api/guilds/bot-status", authenticated(s.handleBotStatus))
	mux.Handle("POST /api/guilds/bot-callback", authenticated(s.handleBotCallback))
	mux.Handle("GET /api/guilds/{id}", authenticated(s.handleGetGuild))
	mux.Handle("PUT /api/guilds/{id}/notion", authenticated(s.handleSetNotion))
	mux.Handle("GET /api/guilds/{id}/invite", authenticated(s.handleInvite))
	mux.Handle("POST /api/guilds/{id}/advice", authenticated(s.handleAdvice))

	mux.Handle("POST /api/notion/test", authenticated(s.handleTestNotion))
	mux.Handle("GET /api/notion/tasks", authenticated(s.handleListTasks))
	mux.Handle("POST /api/notion/tasks", authenticated(s.handleCreateTask))
	mux.Handle("PATCH /api/notion/tasks", authenticated(s.handleUpdateTask))
	mux.Handle("DELETE /api/notion/tasks", authenticated(s.handleDeleteTask))

	mux.Handle("GET /api/bot/guilds/{id}/config", bot(s.handleBotGetConfig))
	mux.Handle("PUT /api/bot/guilds/{id}/config", bot(s.handleBotPutConfig))
	mux.Handle("DELETE /api/bot/guilds/{id}/config", bot(s.handleBotResetConfig))
	mux.Handle("GET /api/bot/guilds/{id}/config/check", bot(s.handleBotCheckConfig))

	return httpmw.Chain(mux,
		httpmw.RequestID,
		httpmw.Recover(s.logger),
		httpmw.AccessLog(s.logger),
		httpmw.SecurityHeaders,
	)
}

// waitFollowups waits up to timeout for deferred interactions to
// finish. It reports whether all of them did.
func (s *server) waitFollowups(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.followups.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-s.clock.After(timeout):
		return false
	}
}

// guildClient builds a Notion client from the guild's stored
// configuration.
func (s *server) guildClient(ctx context.Context, guildID string) (notionClient, error) {
	cfg, err := s.store.Get(ctx, guildID)
	if errors.Is(err, guildconfig.ErrNotFound) || (err == nil && !cfg.IsComplete()) {
		return nil, errNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return s.newNotion(cfg.NotionAPIKey, cfg.NotionDatabaseID)
}
