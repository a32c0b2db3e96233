// Package config loads the portfolio server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Dev defaults. Refused in prod.
const (
	DefaultAdminPassword = "admin123"
	DefaultJWTSecret     = "dev-portfolio-secret"
)

// Config holds application configuration
type Config struct {
	Port         int
	Env          string // dev, prod or test
	LogLevel     string
	DatabasePath string

	AdminUsername    string
	AdminPassword    string
	AdminEmail       string
	JWTSecret        string
	TokenTTL         time.Duration
	TwoFactorEnabled bool
	DemoCodes        []string

	HashSalt        string
	SessionWindow   time.Duration
	RetentionMonths int

	CronSecret          string
	BountySyncSchedule  string
	CleanupSchedule     string
	BountyFetchMetadata bool

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	ToEmail  string

	AllowedOrigins []string
}

// Load reads configuration from environment variables, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
// Variables that are set but cannot be parsed are reported as errors.
func FromEnv() (*Config, error) {
	var e envReader
	cfg := &Config{
		Port:         e.getInt("PORT", 8080),
		Env:          getEnv("ENV", "dev"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "portfolio.db"),

		AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", DefaultAdminPassword),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@localhost"),
		JWTSecret:        getEnv("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:         e.getDuration("TOKEN_TTL", 24*time.Hour),
		TwoFactorEnabled: e.getBool("TWO_FACTOR_ENABLED", true),
		DemoCodes:        getEnvList("DEMO_2FA_CODES", []string{"123456", "000000"}),

		HashSalt:        getEnv("HASH_SALT", "portfolio"),
		SessionWindow:   e.getDuration("SESSION_WINDOW", 30*time.Minute),
		RetentionMonths: e.getInt("RETENTION_MONTHS", 12),

		CronSecret:          getEnv("CRON_SECRET", ""),
		BountySyncSchedule:  getEnv("BOUNTY_SYNC_SCHEDULE", "0 0 */6 * * *"),
		CleanupSchedule:     getEnv("CLEANUP_SCHEDULE", "0 30 3 * * *"),
		BountyFetchMetadata: e.getBool("BOUNTY_FETCH_METADATA", false),

		SMTPHost: getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		ToEmail:  getEnv("TO_EMAIL", ""),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", nil),
	}

	if err := errors.Join(append(e.errs, cfg.Validate())...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	switch c.Env {
	case "dev", "prod", "test":
	default:
		errs = append(errs, fmt.Errorf("invalid ENV %q", c.Env))
	}
	if c.SessionWindow <= 0 {
		errs = append(errs, errors.New("SESSION_WINDOW must be positive"))
	}
	if c.RetentionMonths < 1 {
		errs = append(errs, errors.New("RETENTION_MONTHS must be at least 1"))
	}
	if c.TwoFactorEnabled && len(c.DemoCodes) == 0 {
		errs = append(errs, errors.New("DEMO_2FA_CODES is empty while 2FA is enabled"))
	}
	if c.IsProd() {
		if c.JWTSecret == DefaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in prod"))
		}
		if c.AdminPassword == DefaultAdminPassword {
			errs = append(errs, errors.New("ADMIN_PASSWORD must be set in prod"))
		}
	}
	return errors.Join(errs...)
}

// IsProd reports whether the server runs in production mode.
func (c *Config) IsProd() bool { return c.Env == "prod" }

// SMTPConfigured reports whether outgoing contact mail can be sent.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPass != "" && c.ToEmail != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envReader parses typed variables and remembers the ones it could not read.
type envReader struct {
	errs []error
}

func (e *envReader) getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: not an integer", key, v))
		return def
	}
	return i
}

func (e *envReader) getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: not a boolean", key, v))
		return def
	}
	return b
}

func (e *envReader) getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: want a duration such as 30m", key, v))
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
