// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/notionbot/lib/clock"
	"github.com/bureau-foundation/notionbot/lib/discord"
	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/httpmw"
	"github.com/bureau-foundation/notionbot/lib/llm"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/session"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

const (
	testApplicationID = "app-1"
	testAccessToken   = "user-access"
	testBotSecret     = "bot-secret-bot-secret-bot-secret"
	testNotionKey     = "ntn_abcdefghijklmnopqrstuvwxyz0123456789"
	testDatabaseID    = "598337872cf94fdf8782e53db20768a5"

	// managedGuild is manageable by the test user, unmanagedGuild is
	// not, ownedGuild is owned by them.
	managedGuild   = "guild-managed"
	unmanagedGuild = "guild-unmanaged"
	ownedGuild     = "guild-owned"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type fakeNotion struct {
	mu       sync.Mutex
	tasks    []notion.Task
	err      error
	database notion.Database

	// release, when set, blocks GetTasks until it is closed.
	release chan struct{}

	filters []notion.Filter
	fetched []string
	created []notion.TaskInput
	updated map[string]notion.TaskInput
	deleted []string
}

func (f *fakeNotion) GetTasks(ctx context.Context, filter notion.Filter) ([]notion.Task, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return slices.Clone(f.tasks), nil
}

func (f *fakeNotion) CreateTask(_ context.Context, input notion.TaskInput) (*notion.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, input)
	if f.err != nil {
		return nil, f.err
	}
	return &notion.Task{ID: "page-new", Title: *input.Title, Status: input.Status, Priority: input.Priority}, nil
}

func (f *fakeNotion) GetTask(_ context.Context, taskID string) (*notion.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, taskID)
	if f.err != nil {
		return nil, f.err
	}
	for _, task := range f.tasks {
		if task.ID == taskID {
			return &task, nil
		}
	}
	return nil, &notion.Error{Code: notion.CodeNotFound, StatusCode: http.StatusNotFound, ResourceID: taskID}
}

func (f *fakeNotion) UpdateTask(_ context.Context, taskID string, input notion.TaskInput) (*notion.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = make(map[string]notion.TaskInput)
	}
	f.updated[taskID] = input
	task := &notion.Task{ID: taskID, Status: input.Status}
	if input.Title != nil {
		task.Title = *input.Title
	}
	return task, nil
}

func (f *fakeNotion) DeleteTask(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, taskID)
	return nil
}

func (f *fakeNotion) TestConnection(context.Context) (*notion.ConnectionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &notion.ConnectionResult{Success: true, Database: f.database}, nil
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []llm.Request
	text     string
}

func (p *fakeProvider) Complete(_ context.Context, request llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, request)
	return &llm.Response{Content: []string{p.text}}, nil
}

// fakeDiscord serves the parts of the Discord API the service calls.
type fakeDiscord struct {
	server *httptest.Server

	mu        sync.Mutex
	botGuilds map[string]bool
	edits     chan string
}

func newFakeDiscord(t *testing.T) *fakeDiscord {
	t.Helper()
	fake := &fakeDiscord{
		botGuilds: map[string]bool{},
		edits:     make(chan string, 4),
	}
	userOnly := func(handler http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+testAccessToken {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"message":"401: Unauthorized","code":0}`)
				return
			}
			handler(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		writeTestJSON(w, map[string]string{"access_token": testAccessToken, "token_type": "Bearer"})
	})
	mux.HandleFunc("GET /users/@me", userOnly(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, discord.User{ID: "user-1", Username: "alice"})
	}))
	mux.HandleFunc("GET /users/@me/guilds", userOnly(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, []discord.Guild{
			{ID: managedGuild, Name: "Managed", Permissions: "32"},
			{ID: unmanagedGuild, Name: "Unmanaged", Permissions: "0"},
			{ID: ownedGuild, Name: "Owned", Owner: true, Permissions: "0"},
		})
	}))
	mux.HandleFunc("GET /guilds/{guild}/members/{user}", func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		member := fake.botGuilds[r.PathValue("guild")]
		fake.mu.Unlock()
		if !member || r.PathValue("user") != testApplicationID {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"Unknown Member","code":10007}`)
			return
		}
		writeTestJSON(w, map[string]any{"user": map[string]string{"id": testApplicationID}})
	})
	mux.HandleFunc("PATCH /webhooks/{app}/{token}/messages/@original", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		fake.edits <- body.Content
		writeTestJSON(w, map[string]string{"id": "message-1"})
	})

	fake.server = httptest.NewTLSServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakeDiscord) addBot(guildID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.botGuilds[guildID] = true
}

func writeTestJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(value)
}

type fixture struct {
	store      *guildconfig.MemoryStore
	notion     *fakeNotion
	provider   *fakeProvider
	discord    *fakeDiscord
	sessions   *session.Manager
	clock      *clock.FakeClock
	signingKey ed25519.PrivateKey
	server     *server
	handler    http.Handler
}

type fixtureOption func(*serverConfig)

func withoutAdvisor(cfg *serverConfig) { cfg.Advisor = nil }

func newFixture(t *testing.T, options ...fixtureOption) *fixture {
	t.Helper()
	fake := &fixture{
		notion:   &fakeNotion{database: notion.Database{ID: testDatabaseID, Title: "Sprint Board"}},
		provider: &fakeProvider{text: "1. Ship the release notes"},
		discord:  newFakeDiscord(t),
		clock:    clock.Fake(testNow),
	}
	fake.store = guildconfig.NewMemoryStore(fake.clock)

	sessionKey, err := session.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	fake.sessions, err = session.NewManager(session.Config{PrivateKey: sessionKey, Clock: fake.clock})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	discordClient, err := discord.NewClient(discord.Config{
		BotToken:   "bot-token",
		BaseURL:    fake.discord.server.URL,
		HTTPClient: fake.discord.server.Client(),
		Clock:      fake.clock,
		Logger:     slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("discord.NewClient: %v", err)
	}

	publicKey, signingKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey: %v", err)
	}
	fake.signingKey = signingKey

	logger := slog.New(slog.DiscardHandler)
	limiter := func(name string) *httpmw.Limiter {
		return httpmw.NewLimiter(httpmw.LimiterConfig{Name: name, Limit: 1000, Window: time.Minute, Clock: fake.clock, Logger: logger})
	}
	cfg := serverConfig{
		Store:         fake.store,
		Secrets:       guildconfig.PlaintextSecrets{},
		Sessions:      fake.sessions,
		Discord:       discordClient,
		OAuth:         discord.OAuth{ClientID: testApplicationID, ClientSecret: "client-secret", RedirectURI: "https://bot.example.com/api/auth/callback"},
		PublicKey:     publicKey,
		ApplicationID: testApplicationID,
		PublicURL:     "https://bot.example.com",
		SecureCookies: true,
		BotSecret:     []byte(testBotSecret),
		NewNotion: func(apiKey, databaseID string) (notionClient, error) {
			return fake.notion, nil
		},
		Advisor:     &taskbot.Advisor{Provider: fake.provider, Model: "test-model"},
		APILimiter:  limiter("api"),
		BotLimiter:  limiter("bot"),
		Environment: "development",
		Clock:       fake.clock,
		Logger:      logger,
	}
	for _, option := range options {
		option(&cfg)
	}
	fake.server, err = newServer(cfg)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	fake.handler = fake.server.routes()
	return fake
}

// configure stores complete Notion settings for guildID, registered by
// ownerID.
func (f *fixture) configure(t *testing.T, guildID, ownerID string) {
	t.Helper()
	err := f.store.Save(context.Background(), &guildconfig.GuildConfig{
		GuildID:          guildID,
		GuildName:        "Test Guild",
		DiscordUserID:    ownerID,
		NotionAPIKey:     testNotionKey,
		NotionDatabaseID: testDatabaseID,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// login returns a session cookie for user-1 whose Discord token is
// accessToken.
func (f *fixture) login(t *testing.T, accessToken string) *http.Cookie {
	t.Helper()
	token, err := f.sessions.Issue(session.User{ID: "user-1", Name: "alice", AccessToken: accessToken})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return &http.Cookie{Name: "notionbot_session", Value: token}
}

type request struct {
	method string
	path   string
	body   any
	cookie *http.Cookie
	header map[string]string
}

func (f *fixture) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	httpRequest := httptest.NewRequest(req.method, req.path, body)
	if req.cookie != nil {
		httpRequest.AddCookie(req.cookie)
	}
	for key, value := range req.header {
		httpRequest.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, httpRequest)
	return recorder
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error"`
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var result envelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response %q: %v", recorder.Body.String(), err)
	}
	return result
}

// expectData asserts a success envelope with status and decodes data
// into v.
func expectData(t *testing.T, recorder *httptest.ResponseRecorder, status int, v any) {
	t.Helper()
	if recorder.Code != status {
		t.Fatalf("status = %d, want %d; body = %s", recorder.Code, status, recorder.Body.String())
	}
	result := decodeEnvelope(t, recorder)
	if !result.Success {
		t.Fatalf("success = false; body = %s", recorder.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(result.Data, v); err != nil {
			t.Fatalf("decoding data %s: %v", result.Data, err)
		}
	}
}

// expectError asserts an error envelope with status and code.
func expectError(t *testing.T, recorder *httptest.ResponseRecorder, status int, code string) *errorBody {
	t.Helper()
	if recorder.Code != status {
		t.Fatalf("status = %d, want %d; body = %s", recorder.Code, status, recorder.Body.String())
	}
	result := decodeEnvelope(t, recorder)
	if result.Error == nil || result.Error.Code != code {
		t.Fatalf("error = %+v, want code %q", result.Error, code)
	}
	return result.Error
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	fake := newFixture(t)
	valid := serverConfig{
		Store:      fake.store,
		Secrets:    guildconfig.PlaintextSecrets{},
		Sessions:   fake.sessions,
		Discord:    fake.server.discord,
		PublicKey:  fake.server.publicKey,
		NewNotion:  fake.server.newNotion,
		BotSecret:  []byte(testBotSecret),
		APILimiter: fake.server.apiLimiter,
		BotLimiter: fake.server.botLimiter,
	}
	if _, err := newServer(valid); err != nil {
		t.Fatalf("newServer rejected a complete config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*serverConfig)
	}{
		{"store", func(c *serverConfig) { c.Store = nil }},
		{"secrets", func(c *serverConfig) { c.Secrets = nil }},
		{"public key", func(c *serverConfig) { c.PublicKey = nil }},
		{"notion factory", func(c *serverConfig) { c.NewNotion = nil }},
		{"bot secret", func(c *serverConfig) { c.BotSecret = nil }},
		{"limiter", func(c *serverConfig) { c.BotLimiter = nil }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid
			test.mutate(&cfg)
			if _, err := newServer(cfg); err == nil {
				t.Error("newServer accepted an incomplete config")
			}
		})
	}
}

func TestRoutes_SecurityHeadersAndRequestID(t *testing.T) {
	fake := newFixture(t)
	recorder := fake.do(t, request{method: http.MethodGet, path: "/readyz"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if recorder.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id")
	}
	if recorder.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestRoutes_DashboardCompression(t *testing.T) {
	fake := newFixture(t)
	fake.configure(t, managedGuild, "user-1")
	recorder := fake.do(t, request{
		method: http.MethodGet,
		path:   "/api/guilds/" + managedGuild,
		cookie: fake.login(t, testAccessToken),
		header: map[string]string{"Accept-Encoding": "gzip"},
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Header().Get("Vary"), "Accept-Encoding") {
		t.Errorf("dashboard responses should be negotiated for compression, Vary = %q", recorder.Header().Get("Vary"))
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	fake := newFixture(t, func(cfg *serverConfig) {
		cfg.APILimiter = httpmw.NewLimiter(httpmw.LimiterConfig{
			Name:   "api",
			Limit:  1,
			Window: time.Minute,
			Clock:  cfg.Clock,
			Logger: cfg.Logger,
		})
	})
	first := fake.do(t, request{method: http.MethodGet, path: "/api/auth/me"})
	if first.Code != http.StatusUnauthorized {
		t.Fatalf("first status = %d, want 401", first.Code)
	}
	second := fake.do(t, request{method: http.MethodGet, path: "/api/auth/me"})
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}

	// Probes are not limited.
	if recorder := fake.do(t, request{method: http.MethodGet, path: "/readyz"}); recorder.Code != http.StatusOK {
		t.Errorf("readyz status = %d", recorder.Code)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", errForbiddenGuild, http.StatusForbidden, "forbidden"},
		{"missing guild", guildconfig.ErrNotFound, http.StatusNotFound, "guild-not-found"},
		{"notion invalid key", &notion.Error{Code: notion.CodeInvalidKey, StatusCode: 401}, http.StatusBadRequest, string(notion.CodeInvalidKey)},
		{"notion rate limited", &notion.Error{Code: notion.CodeRateLimited, StatusCode: 429}, http.StatusTooManyRequests, string(notion.CodeRateLimited)},
		{"notion not found", &notion.Error{Code: notion.CodeNotFound, StatusCode: 404}, http.StatusNotFound, string(notion.CodeNotFound)},
		{"no advisor", taskbot.ErrNoAdvisor, http.StatusServiceUnavailable, "advice-disabled"},
		{"discord", &discord.APIError{StatusCode: 500}, http.StatusBadGateway, "discord-error"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"unknown", io.ErrUnexpectedEOF, http.StatusInternalServerError, "internal"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, body := classify(test.err)
			if status != test.wantStatus || body.Code != test.wantCode {
				t.Errorf("classify = %d %q, want %d %q", status, body.Code, test.wantStatus, test.wantCode)
			}
			if test.wantStatus == http.StatusInternalServerError && strings.Contains(body.Message, "EOF") {
				t.Errorf("internal error leaked its cause: %q", body.Message)
			}
		})
	}
}

func TestWaitFollowups(t *testing.T) {
	fake := newFixture(t)
	if !fake.server.waitFollowups(time.Second) {
		t.Error("waitFollowups with nothing pending should succeed")
	}

	// The first call leaves its timer registered.
	pending := fake.clock.PendingCount()
	fake.server.followups.Add(1)
	done := make(chan bool, 1)
	go func() { done <- fake.server.waitFollowups(time.Second) }()
	fake.clock.WaitForTimers(pending + 1)
	fake.clock.Advance(time.Second)
	if <-done {
		t.Error("waitFollowups should give up while a follow-up is pending")
	}
	fake.server.followups.Done()
}
