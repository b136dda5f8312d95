package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "data/pint.db", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "localhost:3000", cfg.Tenant.RootDomain)
	assert.False(t, cfg.Tenant.DevOverride)
	assert.Equal(t, 30*time.Second, cfg.Tenant.CacheTTL)
	assert.Equal(t, int64(10000), cfg.Tenant.CacheMaxEntries)
	assert.Equal(t, "/sign-in", cfg.Auth.SignInPath)
	assert.Empty(t, cfg.Auth.WebhookSecret)
	assert.Empty(t, cfg.Auth.Issuer)
	assert.Empty(t, cfg.Auth.JWKSURL)
	assert.False(t, cfg.Auth.TrustProxyHeaders)
	assert.Empty(t, cfg.API.AllowedOrigins)
	assert.Equal(t, float64(5), cfg.API.CheckRate)
	assert.Equal(t, 10, cfg.API.CheckBurst)
	assert.Equal(t, int64(100000), cfg.API.CheckMaxKeys)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, map[string]any{
		"server": map[string]any{
			"host":             "127.0.0.1",
			"port":             9000,
			"read_timeout":     "60s",
			"write_timeout":    "60s",
			"shutdown_timeout": "15s",
		},
		"database": map[string]any{"dsn": "/tmp/test.db"},
		"log":      map[string]any{"level": "debug", "format": "text"},
		"tenant": map[string]any{
			"root_domain":       "pint.im",
			"dev_override":      true,
			"cache_ttl":         "1m",
			"cache_max_entries": 500,
		},
		"auth": map[string]any{
			"sign_in_path":        "/login",
			"issuer":              "https://clerk.pint.im",
			"audience":            "pint",
			"trust_proxy_headers": true,
			"webhook_secret":      "whsec_dGVzdA==",
		},
		"api": map[string]any{
			"allowed_origins": []string{"https://app.pint.im"},
			"check_rate":      2.5,
			"check_burst":     4,
		},
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "pint.im", cfg.Tenant.RootDomain)
	assert.True(t, cfg.Tenant.DevOverride)
	assert.Equal(t, time.Minute, cfg.Tenant.CacheTTL)
	assert.Equal(t, int64(500), cfg.Tenant.CacheMaxEntries)
	assert.Equal(t, "/login", cfg.Auth.SignInPath)
	assert.Equal(t, "whsec_dGVzdA==", cfg.Auth.WebhookSecret)
	assert.Equal(t, "https://clerk.pint.im", cfg.Auth.Issuer)
	assert.Equal(t, "pint", cfg.Auth.Audience)
	assert.True(t, cfg.Auth.TrustProxyHeaders)
	assert.Equal(t, []string{"https://app.pint.im"}, cfg.API.AllowedOrigins)
	assert.Equal(t, 2.5, cfg.API.CheckRate)
	assert.Equal(t, 4, cfg.API.CheckBurst)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("PINT_SERVER_HOST", "192.168.1.1")
	t.Setenv("PINT_SERVER_PORT", "8081")
	t.Setenv("PINT_DATABASE_DSN", "/custom/path.db")
	t.Setenv("PINT_LOG_LEVEL", "warn")
	t.Setenv("PINT_LOG_FORMAT", "text")
	t.Setenv("PINT_TENANT_ROOT_DOMAIN", "blogs.example.com")
	t.Setenv("PINT_TENANT_DEV_OVERRIDE", "true")
	t.Setenv("PINT_AUTH_WEBHOOK_SECRET", "whsec_abc")
	t.Setenv("PINT_AUTH_ISSUER", "https://idp.example.com")
	t.Setenv("PINT_AUTH_JWKS_URL", "https://idp.example.com/keys")
	t.Setenv("PINT_API_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1", cfg.Server.Host)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "blogs.example.com", cfg.Tenant.RootDomain)
	assert.True(t, cfg.Tenant.DevOverride)
	assert.Equal(t, "whsec_abc", cfg.Auth.WebhookSecret)
	assert.Equal(t, "https://idp.example.com", cfg.Auth.Issuer)
	assert.Equal(t, "https://idp.example.com/keys", cfg.Auth.JWKSURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.API.AllowedOrigins)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, map[string]any{
		"tenant": map[string]any{"root_domain": "file.example.com"},
	})
	t.Setenv("PINT_TENANT_ROOT_DOMAIN", "env.example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env.example.com", cfg.Tenant.RootDomain)
}

func TestLoadConfig_DataDirDerivesDSN(t *testing.T) {
	clearEnv(t)

	t.Setenv("PINT_DATA_DIR", "/var/lib/pint")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/pint/pint.db", cfg.Database.DSN)
}

func TestLoadConfig_ExplicitDSNOverridesDataDir(t *testing.T) {
	clearEnv(t)

	t.Setenv("PINT_DATA_DIR", "/var/lib/pint")
	t.Setenv("PINT_DATABASE_DSN", "/custom/path.db")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port zero", map[string]string{"PINT_SERVER_PORT": "0"}},
		{"port too large", map[string]string{"PINT_SERVER_PORT": "70000"}},
		{"empty root domain", map[string]string{"PINT_TENANT_ROOT_DOMAIN": " "}},
		{"negative check rate", map[string]string{"PINT_API_CHECK_RATE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// Server Config Tests
// =============================================================================

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
		{"127.0.0.1", 9000, "127.0.0.1:9000"},
		{"", 80, ":80"},
	}

	for _, tt := range tests {
		cfg := ServerConfig{Host: tt.host, Port: tt.port}
		assert.Equal(t, tt.want, cfg.Address())
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		info  bool
		warn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warn", false, false, true},
		{"warning", false, false, true},
		{"error", false, false, false},
		{"bogus", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := SetupLogger(&Config{Log: LogConfig{Level: tt.level, Format: "text"}})
			ctx := t.Context()
			assert.Equal(t, tt.debug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.info, logger.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tt.warn, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}

// =============================================================================
// Helpers
// =============================================================================

func writeConfig(t *testing.T, values map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(values)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"PINT_SERVER_HOST",
		"PINT_SERVER_PORT",
		"PINT_DATABASE_DSN",
		"PINT_DATA_DIR",
		"PINT_LOG_LEVEL",
		"PINT_LOG_FORMAT",
		"PINT_TENANT_ROOT_DOMAIN",
		"PINT_TENANT_DEV_OVERRIDE",
		"PINT_AUTH_WEBHOOK_SECRET",
		"PINT_AUTH_ISSUER",
		"PINT_AUTH_JWKS_URL",
		"PINT_AUTH_AUDIENCE",
		"PINT_AUTH_TRUST_PROXY_HEADERS",
		"PINT_API_ALLOWED_ORIGINS",
		"PINT_API_CHECK_RATE",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}
