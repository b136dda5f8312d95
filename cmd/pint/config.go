package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Tenant   TenantConfig   `mapstructure:"tenant"`
	Auth     AuthConfig     `mapstructure:"auth"`
	API      APIConfig      `mapstructure:"api"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TenantConfig holds host resolution and tenant cache configuration.
type TenantConfig struct {
	// RootDomain is the domain blogs are served under, e.g. "pint.im".
	RootDomain string `mapstructure:"root_domain"`

	// DevOverride lets ?subdomain= select a tenant. Never enable in
	// production.
	DevOverride bool `mapstructure:"dev_override"`

	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheMaxEntries int64         `mapstructure:"cache_max_entries"`
}

// AuthConfig holds identity provider configuration.
type AuthConfig struct {
	SignInPath string `mapstructure:"sign_in_path"`

	// Issuer is the identity provider's issuer URL. Session tokens are
	// verified against its published keys. Empty rejects every token.
	Issuer string `mapstructure:"issuer"`

	// JWKSURL skips OIDC discovery when the provider publishes keys elsewhere.
	JWKSURL string `mapstructure:"jwks_url"`

	// Audience, when set, must appear in every session token.
	Audience string `mapstructure:"audience"`

	// TrustProxyHeaders accepts X-User-ID as the caller's identity. Only
	// enable it behind an authenticating proxy that overwrites the header.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`

	// WebhookSecret verifies account webhooks ("whsec_..."). Empty disables
	// the webhook endpoint.
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// APIConfig holds API behaviour configuration.
type APIConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// CheckRate and CheckBurst limit subdomain availability checks per user.
	// A zero rate disables the limit.
	CheckRate  float64 `mapstructure:"check_rate"`
	CheckBurst int     `mapstructure:"check_burst"`

	// CheckMaxKeys bounds how many users the limiter tracks at once.
	CheckMaxKeys int64 `mapstructure:"check_max_keys"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", "")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tenant.root_domain", "localhost:3000")
	v.SetDefault("tenant.dev_override", false)
	v.SetDefault("tenant.cache_ttl", "30s")
	v.SetDefault("tenant.cache_max_entries", 10000)
	v.SetDefault("auth.sign_in_path", "/sign-in")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.trust_proxy_headers", false)
	v.SetDefault("auth.webhook_secret", "")
	v.SetDefault("api.allowed_origins", []string{})
	v.SetDefault("api.check_rate", 5)
	v.SetDefault("api.check_burst", 10)
	v.SetDefault("api.check_max_keys", 100000)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing file falls back to defaults; a broken one is fatal.
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("PINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = filepath.Join(v.GetString("data_dir"), "pint.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Tenant.RootDomain) == "" {
		return fmt.Errorf("tenant.root_domain is required")
	}
	if c.API.CheckRate < 0 {
		return fmt.Errorf("api.check_rate must not be negative")
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
