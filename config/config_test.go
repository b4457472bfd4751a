package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":5200", cfg.ListenAddr)
	assert.Equal(t, "furp", cfg.Stream.Channel)
	assert.Equal(t, time.Minute, cfg.Stream.Interval)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.R2Enabled())
}

func TestLoad_YAMLThenEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	path := writeYAML(t, `
listen_addr: ":9000"
database_url: "postgres://yaml"
session:
  ttl: 12h
stream:
  channel: yamlchannel
  interval: 30s
guesses:
  per_minute: 10
  burst: 5
`)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("GUESS_RATE_BURST", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "yamlchannel", cfg.Stream.Channel)
	assert.Equal(t, 30*time.Second, cfg.Stream.Interval)
	assert.Equal(t, 10, cfg.Guesses.PerMinute)
	assert.Equal(t, 7, cfg.Guesses.Burst)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SESSION_TTL", "forever")
	_, err := Load("")
	assert.ErrorContains(t, err, "SESSION_TTL")
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(writeYAML(t, "listen_addr: [unterminated"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidateServe(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.DatabaseURL = "postgres://localhost/hunts"
		cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Discord = Discord{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "short secret", mutate: func(c *Config) { c.Session.Secret = "short" }, wantErr: "at least 32"},
		{name: "missing discord", mutate: func(c *Config) { c.Discord = Discord{} }, wantErr: "DISCORD_CLIENT_ID, DISCORD_CLIENT_SECRET, DISCORD_REDIRECT_URL"},
		{name: "zero rate", mutate: func(c *Config) { c.Guesses.PerMinute = 0 }, wantErr: "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateServe()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
