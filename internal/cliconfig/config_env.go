package cliconfig

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is the prefix of every environment variable read by marketcart.
const EnvPrefix = "MARKETCART_"

// EnvConfig holds the values read from MARKETCART_* variables.
// Pointer fields stay nil when the variable is unset.
type EnvConfig struct {
	Storage        string        `env:"STORAGE"`
	StorageDir     string        `env:"STORAGE_DIR"`
	SQLitePath     string        `env:"SQLITE_PATH"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        *int          `env:"REDIS_DB"`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX"`
	RedisTTL       time.Duration `env:"REDIS_TTL"`
	Key            string        `env:"KEY"`
	Strict         *bool         `env:"STRICT"`
	Watch          *bool         `env:"WATCH"`
	WatchDebounce  time.Duration `env:"WATCH_DEBOUNCE"`
	LogLevel       string        `env:"LOG_LEVEL"`
}

// ParseEnv reads EnvConfig from the environment.
func ParseEnv() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		return ec, fmt.Errorf("parse env: %w", err)
	}
	return ec, nil
}

// ApplyEnvConfig applies configuration from environment variables (MARKETCART_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	ec, err := ParseEnv()
	if err != nil {
		return err
	}

	s := newConfigSetter(changed)

	s.setString("storage", ec.Storage, &cfg.Storage)
	s.setString("storage-dir", ec.StorageDir, &cfg.StorageDir)
	s.setString("sqlite-path", ec.SQLitePath, &cfg.SQLitePath)
	s.setString("redis-addr", ec.RedisAddr, &cfg.RedisAddr)
	s.setString("redis-password", ec.RedisPassword, &cfg.RedisPassword)
	s.setString("redis-prefix", ec.RedisKeyPrefix, &cfg.RedisKeyPrefix)
	s.setString("key", ec.Key, &cfg.Key)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)

	s.setInt("redis-db", ec.RedisDB, &cfg.RedisDB)

	s.setDuration("redis-ttl", ec.RedisTTL, &cfg.RedisTTL)
	s.setDuration("watch-debounce", ec.WatchDebounce, &cfg.WatchDebounce)

	s.setBool("strict", ec.Strict, &cfg.Strict)
	s.setBool("watch", ec.Watch, &cfg.Watch)

	return nil
}
