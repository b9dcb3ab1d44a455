package cliconfig

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/marketcart/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Storage != StorageFile {
		t.Errorf("Storage = %v, want file", cfg.Storage)
	}
	if cfg.Key != "@GoMarketplace:products" {
		t.Errorf("Key = %v, want @GoMarketplace:products", cfg.Key)
	}
	if cfg.WatchDebounce != 100*time.Millisecond {
		t.Errorf("WatchDebounce = %v, want 100ms", cfg.WatchDebounce)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "file storage with dir",
			config: Config{Storage: "file", StorageDir: "/tmp/cart", WatchDebounce: time.Second},
		},
		{
			name:   "storage name is case-insensitive",
			config: Config{Storage: " SQLite ", StorageDir: "/tmp/cart", WatchDebounce: time.Second},
		},
		{
			name:   "memory storage",
			config: Config{Storage: "memory", WatchDebounce: time.Second},
		},
		{
			name:   "redis storage",
			config: Config{Storage: "redis", RedisAddr: "localhost:6379", WatchDebounce: time.Second},
		},
		{
			name:    "redis without address",
			config:  Config{Storage: "redis", WatchDebounce: time.Second},
			wantErr: true,
		},
		{
			name:    "redis negative db",
			config:  Config{Storage: "redis", RedisAddr: "localhost:6379", RedisDB: -1, WatchDebounce: time.Second},
			wantErr: true,
		},
		{
			name:    "unknown storage",
			config:  Config{Storage: "etcd", WatchDebounce: time.Second},
			wantErr: true,
		},
		{
			name:    "watch requires file storage",
			config:  Config{Storage: "memory", Watch: true, WatchDebounce: time.Second},
			wantErr: true,
		},
		{
			name:    "invalid watch debounce",
			config:  Config{Storage: "memory", WatchDebounce: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	// SQLite path derived from storage dir
	c1 := Config{Storage: "sqlite", StorageDir: "/data/cart", WatchDebounce: time.Second}
	if err := c1.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if want := filepath.Join("/data/cart", "cart.db"); c1.SQLitePath != want {
		t.Errorf("SQLitePath = %v, want %v", c1.SQLitePath, want)
	}
	if c1.Storage != StorageSQLite {
		t.Errorf("Storage = %v, want sqlite", c1.Storage)
	}

	// Explicit SQLite path wins
	c2 := Config{Storage: "sqlite", StorageDir: "/data/cart", SQLitePath: "/elsewhere.db", WatchDebounce: time.Second}
	if err := c2.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c2.SQLitePath != "/elsewhere.db" {
		t.Errorf("SQLitePath = %v, want /elsewhere.db", c2.SQLitePath)
	}

	// Empty storage and key fall back to defaults
	c3 := Config{StorageDir: "/data/cart", WatchDebounce: time.Second}
	if err := c3.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c3.Storage != StorageFile || c3.Key != DefaultKey {
		t.Errorf("Storage = %v, Key = %v", c3.Storage, c3.Key)
	}

	// Storage dir derived from home
	t.Setenv("HOME", "/home/shopper")
	c4 := Config{Storage: "file", WatchDebounce: time.Second}
	if err := c4.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if want := filepath.Join("/home/shopper", ".marketcart"); c4.StorageDir != want {
		t.Errorf("StorageDir = %v, want %v", c4.StorageDir, want)
	}
}
