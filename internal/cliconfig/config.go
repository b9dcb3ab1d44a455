package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bft-labs/marketcart/internal/domain"
)

// DefaultKey is the storage key the cart is kept under.
const DefaultKey = domain.DefaultKey

// Supported storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds CLI configuration for marketcart.
type Config struct {
	Storage    string
	StorageDir string
	SQLitePath string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	RedisTTL       time.Duration

	Key    string
	Strict bool

	Watch         bool
	WatchDebounce time.Duration

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Storage:       StorageFile,
		StorageDir:    "", // Derived from the home directory during Validate
		Key:           DefaultKey,
		WatchDebounce: 100 * time.Millisecond,
		LogLevel:      "info",
		RedisPassword: os.Getenv("MARKETCART_REDIS_PASSWORD"),
	}
}

// DefaultHomeDir returns ~/.marketcart, or "" when the home directory is unknown.
func DefaultHomeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".marketcart")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.Storage == "" {
		c.Storage = StorageFile
	}

	switch c.Storage {
	case StorageFile, StorageSQLite:
		if c.StorageDir == "" {
			c.StorageDir = DefaultHomeDir()
		}
		if c.StorageDir == "" {
			return fmt.Errorf("%w: storage-dir is required (home directory unknown)", domain.ErrInvalidConfig)
		}
		if c.Storage == StorageSQLite && c.SQLitePath == "" {
			c.SQLitePath = filepath.Join(c.StorageDir, "cart.db")
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis-addr is required for redis storage", domain.ErrInvalidConfig)
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("%w: redis-db must not be negative", domain.ErrInvalidConfig)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: unknown storage %q", domain.ErrInvalidConfig, c.Storage)
	}

	if c.Key == "" {
		c.Key = DefaultKey
	}

	if c.Watch && c.Storage != StorageFile {
		return fmt.Errorf("%w: watch requires file storage", domain.ErrInvalidConfig)
	}
	if c.WatchDebounce <= 0 {
		return fmt.Errorf("%w: watch debounce must be positive", domain.ErrInvalidConfig)
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
// Zero is a valid value (redis database 0).
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDurationString parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDurationString(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setDuration sets an already parsed duration if positive and flag not changed.
func (s *configSetter) setDuration(flag string, value time.Duration, dst *time.Duration) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
