package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://mailing:secret@db:5432/mailing?sslmode=disable"
  max_open_conns: 25

redis:
  addr: "redis:6379"
  db: 2

auth:
  jwt_secret: "s3cret"
  token_ttl_minutes: 30

mail:
  provider: "ses"
  from: "news@example.com"
  personalize: true
  timeout_seconds: 10

ses:
  region: "eu-west-1"

cache:
  stats_ttl_seconds: 60

dispatch:
  lock_enabled: true
  lock_ttl_seconds: 120

log:
  level: "debug"
  redact_pii: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL())
	assert.Equal(t, "ses", cfg.Mail.Provider)
	assert.Equal(t, "news@example.com", cfg.Mail.From)
	assert.True(t, cfg.Mail.Personalize)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout())
	assert.Equal(t, "eu-west-1", cfg.SES.Region)
	assert.Equal(t, "eu-west-1", cfg.Storage.AWSRegion, "storage region follows SES region")
	assert.Equal(t, time.Minute, cfg.Cache.StatsTTL())
	assert.True(t, cfg.Dispatch.LockEnabled)
	assert.Equal(t, 2*time.Minute, cfg.Dispatch.LockTTL())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/mailing"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.Equal(t, 30, cfg.Mail.TimeoutSeconds)
	assert.Equal(t, "us-east-1", cfg.SES.Region)
	assert.Equal(t, 300, cfg.Cache.StatsTTLSeconds)
	assert.Equal(t, 600, cfg.Dispatch.LockTTLSeconds)
	assert.Equal(t, "media", cfg.Storage.LocalDir)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL())
	assert.True(t, cfg.Log.Redact())
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://file/mailing"
mail:
  from: "file@example.com"
`)

	t.Setenv("DATABASE_URL", "postgres://env/mailing")
	t.Setenv("MAIL_FROM", "env@example.com")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/mailing", cfg.Database.URL)
	assert.Equal(t, "env@example.com", cfg.Mail.From)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestGetHostOverride(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.2")
	assert.Equal(t, "127.0.0.2", ServerConfig{Host: "localhost"}.GetHost())
}
