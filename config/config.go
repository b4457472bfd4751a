// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	ListenAddr     string   `yaml:"listen_addr"`
	DatabaseURL    string   `yaml:"database_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Session  Session  `yaml:"session"`
	Discord  Discord  `yaml:"discord"`
	Frontend Frontend `yaml:"frontend"`
	R2       R2       `yaml:"r2"`
	Stream   Stream   `yaml:"stream"`
	Guesses  Guesses  `yaml:"guesses"`
	Log      Log      `yaml:"log"`

	// MetricsToken is the bearer token Prometheus must present. /metrics is off when empty.
	MetricsToken string `yaml:"metrics_token"`
}

type Session struct {
	Secret     string        `yaml:"secret"`
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
}

// Discord holds the OAuth application used for login.
type Discord struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Frontend holds the browser pages the login flow sends users back to.
type Frontend struct {
	HomeURL  string `yaml:"home_url"`
	LoginURL string `yaml:"login_url"`
}

// R2 holds the Cloudflare R2 bucket used for hunt archives. Archiving is disabled when AccountID or Bucket is empty.
type R2 struct {
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Bucket          string `yaml:"bucket"`
	CDNBaseURL      string `yaml:"cdn_base_url"`
}

type Stream struct {
	Channel    string        `yaml:"channel"`
	APIBaseURL string        `yaml:"api_base_url"`
	Interval   time.Duration `yaml:"interval"`
}

// Guesses configures the per-user submission rate limit.
type Guesses struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

type Log struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // "json" or "text"
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// Default returns the configuration used when nothing overrides a setting.
func Default() *Config {
	return &Config{
		ListenAddr:     ":5200",
		AllowedOrigins: []string{"http://localhost:3000"},
		Session: Session{
			TTL:        7 * 24 * time.Hour,
			CookieName: "bh_session",
		},
		Frontend: Frontend{
			HomeURL:  "http://localhost:3000/index.html",
			LoginURL: "http://localhost:3000/login.html",
		},
		Stream: Stream{
			Channel:    "furp",
			APIBaseURL: "https://kick.com/api/v1",
			Interval:   time.Minute,
		},
		Guesses: Guesses{
			PerMinute: 6,
			Burst:     3,
		},
		Log: Log{
			Level:     "info",
			Format:    "json",
			MaxSizeMB: 50,
		},
	}
}

// Load reads .env (if present), then the optional YAML file at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	// .env is optional; real deployments set variables directly
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.DatabaseURL, "DATABASE_URL")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	setString(&c.Session.Secret, "SESSION_SECRET")
	setString(&c.Session.CookieName, "SESSION_COOKIE_NAME")
	if err := setDuration(&c.Session.TTL, "SESSION_TTL"); err != nil {
		return err
	}

	setString(&c.Discord.ClientID, "DISCORD_CLIENT_ID")
	setString(&c.Discord.ClientSecret, "DISCORD_CLIENT_SECRET")
	setString(&c.Discord.RedirectURL, "DISCORD_REDIRECT_URL")

	setString(&c.Frontend.HomeURL, "FRONTEND_HOME_URL")
	setString(&c.Frontend.LoginURL, "FRONTEND_LOGIN_URL")

	setString(&c.R2.AccountID, "CLOUDFLARE_ACCOUNT_ID")
	setString(&c.R2.AccessKeyID, "R2_ACCESS_KEY_ID")
	setString(&c.R2.AccessKeySecret, "R2_ACCESS_KEY_SECRET")
	setString(&c.R2.Bucket, "R2_BUCKET_NAME")
	setString(&c.R2.CDNBaseURL, "CDN_BASE_URL")

	setString(&c.Stream.Channel, "KICK_CHANNEL")
	setString(&c.Stream.APIBaseURL, "KICK_API_BASE_URL")
	if err := setDuration(&c.Stream.Interval, "KICK_POLL_INTERVAL"); err != nil {
		return err
	}

	if err := setInt(&c.Guesses.PerMinute, "GUESS_RATE_PER_MINUTE"); err != nil {
		return err
	}
	if err := setInt(&c.Guesses.Burst, "GUESS_RATE_BURST"); err != nil {
		return err
	}

	setString(&c.MetricsToken, "METRICS_TOKEN")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Log.File, "LOG_FILE")
	return setInt(&c.Log.MaxSizeMB, "LOG_MAX_SIZE_MB")
}

// ValidateDatabase checks the settings every database-backed command needs.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

// ValidateServe checks the settings the HTTP server needs on top of the database.
func (c *Config) ValidateServe() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	var missing []string
	if c.Session.Secret == "" {
		missing = append(missing, "SESSION_SECRET")
	} else if len(c.Session.Secret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}
	if c.Discord.ClientID == "" {
		missing = append(missing, "DISCORD_CLIENT_ID")
	}
	if c.Discord.ClientSecret == "" {
		missing = append(missing, "DISCORD_CLIENT_SECRET")
	}
	if c.Discord.RedirectURL == "" {
		missing = append(missing, "DISCORD_REDIRECT_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.Guesses.PerMinute <= 0 || c.Guesses.Burst <= 0 {
		return errors.New("guess rate limit must be positive")
	}
	return nil
}

// R2Enabled reports whether hunt archives can be uploaded.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.Bucket != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
