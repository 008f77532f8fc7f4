// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/notionbot/lib/httpmw"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for production deployments.
	Production Environment = "production"
)

// EnvVar names the environment variable [Load] reads the config path
// from.
const EnvVar = "NOTIONBOT_CONFIG"

// Config is the configuration shared by notionbot-service and the
// notionbot CLI.
type Config struct {
	// Environment identifies the deployment type (development, production).
	Environment Environment `yaml:"environment"`

	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Discord   DiscordConfig   `yaml:"discord"`
	Notion    NotionConfig    `yaml:"notion"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	Session   SessionConfig   `yaml:"session"`
	BotAPI    BotAPIConfig    `yaml:"botapi"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains the sections that can be overridden per
// environment. Non-zero fields replace the base value.
type ConfigOverrides struct {
	Log    *LogConfig    `yaml:"log,omitempty"`
	HTTP   *HTTPConfig   `yaml:"http,omitempty"`
	Notion *NotionConfig `yaml:"notion,omitempty"`
	Store  *StoreConfig  `yaml:"store,omitempty"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level"`
}

// HTTPConfig configures the service's listener.
type HTTPConfig struct {
	// Listen is the TCP address to serve on. Default: :8080
	Listen string `yaml:"listen"`

	// PublicURL is the externally visible base URL, used to derive the
	// OAuth redirect URI and the post-login redirect.
	PublicURL string `yaml:"public_url"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DiscordConfig holds the Discord application's credentials.
type DiscordConfig struct {
	ApplicationID string `yaml:"application_id"`

	// PublicKey is the application's Ed25519 interactions key, hex.
	PublicKey string `yaml:"public_key"`

	BotToken     string `yaml:"bot_token"`
	BotTokenFile string `yaml:"bot_token_file"`

	// ClientID defaults to ApplicationID.
	ClientID         string `yaml:"client_id"`
	ClientSecret     string `yaml:"client_secret"`
	ClientSecretFile string `yaml:"client_secret_file"`

	// RedirectURI defaults to PublicURL + /api/auth/callback.
	RedirectURI string `yaml:"redirect_uri"`

	// APIBaseURL is the REST base. Default: https://discord.com/api/v10
	APIBaseURL string `yaml:"api_base_url"`
}

// maxNotionAttempts bounds notion.max_attempts. Past it, a request
// stalls a handler for longer than any client will wait.
const maxNotionAttempts = 10

// NotionConfig configures every Notion client the service builds.
type NotionConfig struct {
	// BaseURL default: https://api.notion.com/v1
	BaseURL string `yaml:"base_url"`

	// Version is sent as Notion-Version. Default: 2022-06-28
	Version string `yaml:"version"`

	// MaxAttempts bounds retries of transient failures. At most 10.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the first backoff delay. Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxRetryAfter caps a server-requested wait. Zero honours the
	// server. Default: 0 (development: 1s)
	MaxRetryAfter time.Duration `yaml:"max_retry_after"`
}

// LLMConfig configures the advice provider. Advice is disabled when no
// API key is configured.
type LLMConfig struct {
	// Provider is openai or anthropic. Default: openai
	Provider string `yaml:"provider"`

	// BaseURL overrides the provider's API base.
	BaseURL string `yaml:"base_url"`

	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`

	// Model default: gpt-4.1-nano
	Model string `yaml:"model"`

	// MaxTokens default: 1024
	MaxTokens int `yaml:"max_tokens"`
}

// Enabled reports whether an API key is configured.
func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

// StoreConfig configures the guild database.
type StoreConfig struct {
	// Path is the SQLite file. Default: notionbot.db
	Path string `yaml:"path"`

	// PoolSize default: 4
	PoolSize int `yaml:"pool_size"`
}

// SecretsConfig configures encryption of Notion keys at rest.
type SecretsConfig struct {
	// IdentityFile holds the age private key (AGE-SECRET-KEY-1...).
	IdentityFile string `yaml:"identity_file"`

	// Recipients are extra age public keys that can also decrypt
	// stored keys, for offline recovery.
	Recipients []string `yaml:"recipients"`
}

// SessionConfig configures dashboard login sessions.
type SessionConfig struct {
	// KeyFile holds the Ed25519 signing key seed, base64.
	KeyFile string `yaml:"key_file"`

	// TTL default: 168h
	TTL time.Duration `yaml:"ttl"`

	// CookieName default: notionbot_session
	CookieName string `yaml:"cookie_name"`

	// Secure marks cookies Secure. Always true in production.
	Secure bool `yaml:"secure"`
}

// BotAPIConfig configures the bearer secret of the bot API.
type BotAPIConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"`
}

// RateLimitConfig holds the per-client limits of the two API classes.
type RateLimitConfig struct {
	// API limits the dashboard API. Default: 50 per 15m
	API LimitConfig `yaml:"api"`

	// Bot limits the bot API. Default: 200 per 15m
	Bot LimitConfig `yaml:"bot"`

	// TrustedProxies lists the reverse proxies (addresses or CIDR
	// prefixes) whose X-Forwarded-For header identifies the client.
	// Empty keys limits on the connection's remote address.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// LimitConfig is a request budget per window.
type LimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Default returns the default configuration, used as the base before
// the config file is loaded.
func Default() *Config {
	return &Config{
		Environment: Development,
		Log:         LogConfig{Level: "info"},
		HTTP: HTTPConfig{
			Listen:          ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Discord: DiscordConfig{
			APIBaseURL: "https://discord.com/api/v10",
		},
		Notion: NotionConfig{
			BaseURL:     "https://api.notion.com/v1",
			Version:     "2022-06-28",
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4.1-nano",
			MaxTokens: 1024,
		},
		Store: StoreConfig{
			Path:     "notionbot.db",
			PoolSize: 4,
		},
		Session: SessionConfig{
			TTL:        7 * 24 * time.Hour,
			CookieName: "notionbot_session",
		},
		RateLimit: RateLimitConfig{
			API: LimitConfig{Requests: 50, Window: 15 * time.Minute},
			Bot: LimitConfig{Requests: 200, Window: 15 * time.Minute},
		},
	}
}

// Load loads configuration from the file named by NOTIONBOT_CONFIG.
// There is no fallback: if the variable is not set, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your notionbot.yaml config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// ${VAR} and ${VAR:-default} are expanded in the file text before it
// is parsed, so secrets can come from the environment. Then the
// environment section is applied, *_file secrets are read, and derived
// defaults are filled in. LoadFile does not call [Config.Validate].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	if err := cfg.resolveSecretFiles(); err != nil {
		return nil, err
	}
	cfg.applyDerivedDefaults()
	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandVars(string(data))), c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}

	if overrides != nil {
		if overrides.Log != nil && overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.HTTP != nil {
			if overrides.HTTP.Listen != "" {
				c.HTTP.Listen = overrides.HTTP.Listen
			}
			if overrides.HTTP.PublicURL != "" {
				c.HTTP.PublicURL = overrides.HTTP.PublicURL
			}
			if overrides.HTTP.ShutdownTimeout != 0 {
				c.HTTP.ShutdownTimeout = overrides.HTTP.ShutdownTimeout
			}
		}
		if overrides.Notion != nil {
			if overrides.Notion.BaseURL != "" {
				c.Notion.BaseURL = overrides.Notion.BaseURL
			}
			if overrides.Notion.MaxAttempts != 0 {
				c.Notion.MaxAttempts = overrides.Notion.MaxAttempts
			}
			if overrides.Notion.BaseDelay != 0 {
				c.Notion.BaseDelay = overrides.Notion.BaseDelay
			}
			if overrides.Notion.MaxRetryAfter != 0 {
				c.Notion.MaxRetryAfter = overrides.Notion.MaxRetryAfter
			}
		}
		if overrides.Store != nil {
			if overrides.Store.Path != "" {
				c.Store.Path = overrides.Store.Path
			}
			if overrides.Store.PoolSize != 0 {
				c.Store.PoolSize = overrides.Store.PoolSize
			}
		}
	}

	switch c.Environment {
	case Development:
		// Short waits so a rate-limited dev loop fails fast.
		if c.Notion.MaxRetryAfter == 0 {
			c.Notion.MaxRetryAfter = time.Second
		}
		c.Notion.BaseDelay = min(c.Notion.BaseDelay, 500*time.Millisecond)
	case Production:
		c.Session.Secure = true
	}
}

// resolveSecretFiles reads every *_file field into its value field.
// Setting both the value and the file is an error.
func (c *Config) resolveSecretFiles() error {
	secrets := []struct {
		name  string
		value *string
		file  string
	}{
		{"discord.bot_token", &c.Discord.BotToken, c.Discord.BotTokenFile},
		{"discord.client_secret", &c.Discord.ClientSecret, c.Discord.ClientSecretFile},
		{"llm.api_key", &c.LLM.APIKey, c.LLM.APIKeyFile},
		{"botapi.secret", &c.BotAPI.Secret, c.BotAPI.SecretFile},
	}
	for _, secret := range secrets {
		if secret.file == "" {
			continue
		}
		if *secret.value != "" {
			return fmt.Errorf("%s and %s_file are both set", secret.name, secret.name)
		}
		data, err := os.ReadFile(secret.file)
		if err != nil {
			return fmt.Errorf("reading %s_file: %w", secret.name, err)
		}
		*secret.value = strings.TrimSpace(string(data))
	}
	return nil
}

func (c *Config) applyDerivedDefaults() {
	c.HTTP.PublicURL = strings.TrimRight(c.HTTP.PublicURL, "/")
	if c.Discord.ClientID == "" {
		c.Discord.ClientID = c.Discord.ApplicationID
	}
	if c.Discord.RedirectURI == "" && c.HTTP.PublicURL != "" {
		c.Discord.RedirectURI = c.HTTP.PublicURL + "/api/auth/callback"
	}
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
// An unset or empty variable without a default expands to "".
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration for everything notionbot-service
// needs. CLI subcommands that use only part of the config check their
// own fields instead.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if c.HTTP.Listen == "" {
		errs = append(errs, errors.New("http.listen is required"))
	}
	if c.HTTP.PublicURL == "" {
		errs = append(errs, errors.New("http.public_url is required"))
	} else if parsed, err := url.Parse(c.HTTP.PublicURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("http.public_url must be an absolute URL: %q", c.HTTP.PublicURL))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("http.shutdown_timeout must be positive"))
	}

	if c.Discord.ApplicationID == "" {
		errs = append(errs, errors.New("discord.application_id is required"))
	}
	if key, err := hex.DecodeString(c.Discord.PublicKey); err != nil || len(key) != 32 {
		errs = append(errs, errors.New("discord.public_key must be 64 hex characters"))
	}
	if c.Discord.ClientSecret == "" {
		errs = append(errs, errors.New("discord.client_secret is required"))
	}
	if c.Discord.BotToken == "" {
		errs = append(errs, errors.New("discord.bot_token is required"))
	}

	if c.Notion.MaxAttempts < 1 || c.Notion.MaxAttempts > maxNotionAttempts {
		errs = append(errs, fmt.Errorf("notion.max_attempts must be between 1 and %d", maxNotionAttempts))
	}
	if c.LLM.Enabled() {
		if !slices.Contains([]string{"openai", "anthropic"}, c.LLM.Provider) {
			errs = append(errs, fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider))
		}
		if c.LLM.MaxTokens < 1 {
			errs = append(errs, errors.New("llm.max_tokens must be positive"))
		}
	}

	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Store.PoolSize < 1 {
		errs = append(errs, errors.New("store.pool_size must be at least 1"))
	}
	if c.Secrets.IdentityFile == "" {
		errs = append(errs, errors.New("secrets.identity_file is required"))
	}
	if c.Session.KeyFile == "" {
		errs = append(errs, errors.New("session.key_file is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if len(c.BotAPI.Secret) < 32 {
		errs = append(errs, errors.New("botapi.secret must be at least 32 characters"))
	}

	if c.RateLimit.API.Requests < 1 || c.RateLimit.API.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.api needs positive requests and window"))
	}
	if c.RateLimit.Bot.Requests < 1 || c.RateLimit.Bot.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.bot needs positive requests and window"))
	}
	if _, err := httpmw.ParseTrustedProxies(c.RateLimit.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("ratelimit.trusted_proxies: %w", err))
	}

	return errors.Join(errs...)
}
