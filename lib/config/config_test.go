// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/notionbot/lib/testutil"
)

const validPublicKey = "e0b1c2d3e4f5061728394a5b6c7d8e9f00112233445566778899aabbccddeeff"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	return testutil.WriteFile(t, "notionbot.yaml", content)
}

func validConfig() *Config {
	cfg := Default()
	cfg.HTTP.PublicURL = "https://bot.example.com"
	cfg.Discord.ApplicationID = "1234"
	cfg.Discord.PublicKey = validPublicKey
	cfg.Discord.ClientSecret = "client-secret"
	cfg.Discord.BotToken = "bot-token"
	cfg.Secrets.IdentityFile = "/etc/notionbot/age.key"
	cfg.Session.KeyFile = "/etc/notionbot/session.key"
	cfg.BotAPI.Secret = strings.Repeat("s", 32)
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Notion.Version != "2022-06-28" {
		t.Errorf("expected notion.version=2022-06-28, got %s", cfg.Notion.Version)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Errorf("expected session.ttl=168h, got %s", cfg.Session.TTL)
	}
	if cfg.RateLimit.API.Requests != 50 || cfg.RateLimit.Bot.Requests != 200 {
		t.Errorf("unexpected rate limits: %+v", cfg.RateLimit)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when NOTIONBOT_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "NOTIONBOT_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithEnvVar(t *testing.T) {
	t.Setenv(EnvVar, writeConfig(t, `
environment: production
http:
  public_url: https://bot.example.com/
store:
  path: /var/lib/notionbot/guilds.db
`))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Production {
		t.Errorf("expected environment=production, got %s", cfg.Environment)
	}
	if cfg.Store.Path != "/var/lib/notionbot/guilds.db" {
		t.Errorf("expected store path from file, got %s", cfg.Store.Path)
	}
	if cfg.HTTP.PublicURL != "https://bot.example.com" {
		t.Errorf("public_url trailing slash not trimmed: %s", cfg.HTTP.PublicURL)
	}
	if cfg.Discord.RedirectURI != "https://bot.example.com/api/auth/callback" {
		t.Errorf("derived redirect_uri = %s", cfg.Discord.RedirectURI)
	}
	if !cfg.Session.Secure {
		t.Error("production must force secure cookies")
	}
}

func TestLoadFile_ExpandsVariables(t *testing.T) {
	t.Setenv("TEST_NOTIONBOT_TOKEN", "from-env")
	t.Setenv("TEST_NOTIONBOT_EMPTY", "")

	cfg, err := LoadFile(writeConfig(t, `
discord:
  bot_token: ${TEST_NOTIONBOT_TOKEN}
  application_id: ${TEST_NOTIONBOT_EMPTY:-4242}
llm:
  model: ${TEST_NOTIONBOT_UNSET_MODEL}
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Discord.BotToken != "from-env" {
		t.Errorf("bot_token = %q", cfg.Discord.BotToken)
	}
	if cfg.Discord.ApplicationID != "4242" || cfg.Discord.ClientID != "4242" {
		t.Errorf("application_id/client_id = %q/%q", cfg.Discord.ApplicationID, cfg.Discord.ClientID)
	}
	if cfg.LLM.Model != "" {
		t.Errorf("unset variable should expand to empty, got %q", cfg.LLM.Model)
	}
}

func TestLoadFile_SecretFiles(t *testing.T) {
	tokenFile := testutil.WriteFile(t, "secret", "  bot-token-from-file\n")
	keyFile := testutil.WriteFile(t, "secret", "sk-test\n")

	cfg, err := LoadFile(writeConfig(t, `
discord:
  bot_token_file: `+tokenFile+`
llm:
  api_key_file: `+keyFile+`
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Discord.BotToken != "bot-token-from-file" {
		t.Errorf("bot_token = %q", cfg.Discord.BotToken)
	}
	if !cfg.LLM.Enabled() || cfg.LLM.APIKey != "sk-test" {
		t.Errorf("llm api key = %q", cfg.LLM.APIKey)
	}

	_, err = LoadFile(writeConfig(t, `
botapi:
  secret: inline
  secret_file: `+tokenFile+`
`))
	if err == nil || !strings.Contains(err.Error(), "both set") {
		t.Errorf("expected a both-set error, got %v", err)
	}

	_, err = LoadFile(writeConfig(t, "botapi:\n  secret_file: /nonexistent/secret\n"))
	if err == nil {
		t.Error("expected error for a missing secret file")
	}
}

func TestLoadFile_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name              string
		content           string
		wantLevel         string
		wantBaseDelay     time.Duration
		wantMaxRetryAfter time.Duration
		wantPath          string
	}{
		{
			name: "development caps retry waits",
			content: `
environment: development
notion:
  base_delay: 2s
development:
  log:
    level: debug
  store:
    path: dev.db
`,
			wantLevel:         "debug",
			wantBaseDelay:     500 * time.Millisecond,
			wantMaxRetryAfter: time.Second,
			wantPath:          "dev.db",
		},
		{
			name: "production section ignored in development",
			content: `
environment: development
production:
  store:
    path: prod.db
`,
			wantLevel:         "info",
			wantBaseDelay:     500 * time.Millisecond,
			wantMaxRetryAfter: time.Second,
			wantPath:          "notionbot.db",
		},
		{
			name: "production keeps server waits",
			content: `
environment: production
production:
  log:
    level: warn
  notion:
    max_attempts: 5
`,
			wantLevel:         "warn",
			wantBaseDelay:     time.Second,
			wantMaxRetryAfter: 0,
			wantPath:          "notionbot.db",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := LoadFile(writeConfig(t, test.content))
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if cfg.Log.Level != test.wantLevel {
				t.Errorf("log.level = %s, want %s", cfg.Log.Level, test.wantLevel)
			}
			if cfg.Notion.BaseDelay != test.wantBaseDelay {
				t.Errorf("notion.base_delay = %s, want %s", cfg.Notion.BaseDelay, test.wantBaseDelay)
			}
			if cfg.Notion.MaxRetryAfter != test.wantMaxRetryAfter {
				t.Errorf("notion.max_retry_after = %s, want %s", cfg.Notion.MaxRetryAfter, test.wantMaxRetryAfter)
			}
			if cfg.Store.Path != test.wantPath {
				t.Errorf("store.path = %s, want %s", cfg.Store.Path, test.wantPath)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile("/nonexistent/notionbot.yaml"); err == nil {
		t.Error("expected error for a missing file")
	}
	if _, err := LoadFile(writeConfig(t, "http: [unclosed")); err == nil {
		t.Error("expected error for invalid YAML")
	}
	if _, err := LoadFile(writeConfig(t, "http:\n  shutdown_timeout: soon\n")); err == nil {
		t.Error("expected error for an invalid duration")
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"environment", func(c *Config) { c.Environment = "staging" }, "invalid environment"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"public url", func(c *Config) { c.HTTP.PublicURL = "bot.example.com" }, "http.public_url"},
		{"public key", func(c *Config) { c.Discord.PublicKey = "abcd" }, "discord.public_key"},
		{"client secret", func(c *Config) { c.Discord.ClientSecret = "" }, "discord.client_secret"},
		{"llm provider", func(c *Config) { c.LLM.APIKey = "k"; c.LLM.Provider = "gemini" }, "llm.provider"},
		{"pool size", func(c *Config) { c.Store.PoolSize = 0 }, "store.pool_size"},
		{"identity", func(c *Config) { c.Secrets.IdentityFile = "" }, "secrets.identity_file"},
		{"short bot secret", func(c *Config) { c.BotAPI.Secret = "short" }, "botapi.secret"},
		{"rate limit", func(c *Config) { c.RateLimit.Bot.Window = 0 }, "ratelimit.bot"},
		{"no notion attempts", func(c *Config) { c.Notion.MaxAttempts = 0 }, "notion.max_attempts"},
		{"trusted proxy", func(c *Config) { c.RateLimit.TrustedProxies = []string{"proxy.internal"} }, "ratelimit.trusted_proxies"},
		{"too many notion attempts", func(c *Config) { c.Notion.MaxAttempts = 64 }, "notion.max_attempts"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := validConfig()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, test.wantErr)
			}
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	err := Default().Validate()
	if err == nil {
		t.Fatal("default config should not validate")
	}
	for _, field := range []string{"http.public_url", "discord.application_id", "session.key_file", "botapi.secret"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("joined error missing %s:\n%v", field, err)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "DEBUG"
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v", level, err)
	}
}
