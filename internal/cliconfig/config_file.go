package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Storage        string `toml:"storage"`
	StorageDir     string `toml:"storage_dir"`
	SQLitePath     string `toml:"sqlite_path"`
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        *int   `toml:"redis_db"`
	RedisKeyPrefix string `toml:"redis_key_prefix"`
	RedisTTL       string `toml:"redis_ttl"`
	Key            string `toml:"key"`
	Strict         *bool  `toml:"strict"`
	Watch          *bool  `toml:"watch"`
	WatchDebounce  string `toml:"watch_debounce"`
	LogLevel       string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.marketcart/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h := DefaultHomeDir(); h != "" {
		return filepath.Join(h, "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("storage", fc.Storage, &cfg.Storage)
	s.setString("storage-dir", fc.StorageDir, &cfg.StorageDir)
	s.setString("sqlite-path", fc.SQLitePath, &cfg.SQLitePath)
	s.setString("redis-addr", fc.RedisAddr, &cfg.RedisAddr)
	s.setString("redis-password", fc.RedisPassword, &cfg.RedisPassword)
	s.setString("redis-prefix", fc.RedisKeyPrefix, &cfg.RedisKeyPrefix)
	s.setString("key", fc.Key, &cfg.Key)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setInt("redis-db", fc.RedisDB, &cfg.RedisDB)

	if err := s.setDurationString("redis-ttl", fc.RedisTTL, &cfg.RedisTTL); err != nil {
		return err
	}
	if err := s.setDurationString("watch-debounce", fc.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}

	s.setBool("strict", fc.Strict, &cfg.Strict)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
