// Package config loads server settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds runtime settings for the chat server.
type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	StorageBackend string        `envconfig:"STORAGE_BACKEND" default:"sqlite"`
	DatabasePath   string        `envconfig:"DATABASE_PATH" default:"pairchat.db"`
	BadgerDir      string        `envconfig:"BADGER_DIR" default:"pairchat-badger"`
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	BcryptCost     int           `envconfig:"BCRYPT_COST" default:"12"`
	CookieSecure   bool          `envconfig:"COOKIE_SECURE" default:"true"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	AuthRate       float64       `envconfig:"AUTH_RATE" default:"0.2"`
	AuthBurst      float64       `envconfig:"AUTH_BURST" default:"10"`
}

// Load reads .env (if present) and then the process environment. Variables
// already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.AuthRate < 0 || c.AuthBurst < 1 {
		return fmt.Errorf("AUTH_RATE must be >= 0 and AUTH_BURST >= 1")
	}
	switch c.StorageBackend {
	case BackendSQLite, BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}
