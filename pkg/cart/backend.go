package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/marketcart/internal/adapters/fs"
	"github.com/bft-labs/marketcart/internal/adapters/memory"
	"github.com/bft-labs/marketcart/internal/adapters/redis"
	"github.com/bft-labs/marketcart/internal/adapters/sqlite"
	"github.com/bft-labs/marketcart/internal/backoff"
	"github.com/bft-labs/marketcart/internal/domain"
	"github.com/bft-labs/marketcart/pkg/log"
)

// Storage backends accepted by OpenStorage.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// StorageConfig selects and configures a storage backend.
type StorageConfig struct {
	Backend string

	// Dir is the directory of the file backend.
	Dir string

	// SQLitePath is the database file of the sqlite backend.
	SQLitePath string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	RedisTTL       time.Duration

	// RedisConnectAttempts bounds the startup pings; zero means 3.
	RedisConnectAttempts int

	Logger log.Logger
}

// OpenStorage builds the configured backend. For redis it also checks
// connectivity, retrying with backoff, so a misconfigured address fails at
// startup.
func OpenStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendFile, "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("%w: file backend requires a directory", domain.ErrInvalidConfig)
		}
		return fs.NewStorage(cfg.Dir), nil

	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("%w: sqlite backend requires a database path", domain.ErrInvalidConfig)
		}
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis backend requires an address", domain.ErrInvalidConfig)
		}
		st := redis.NewStorage(redis.Options{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
			TTL:       cfg.RedisTTL,
		}, logger)
		attempts := cfg.RedisConnectAttempts
		if attempts <= 0 {
			attempts = 3
		}
		err := backoff.Retry(ctx, backoff.New(backoff.DefaultInitial, backoff.DefaultMax), attempts, func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := st.Ping(pingCtx); err != nil {
				logger.Warn("redis not reachable", log.String("addr", cfg.RedisAddr), log.Err(err))
				return err
			}
			return nil
		})
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return st, nil

	case BackendMemory:
		return memory.NewStorage(), nil

	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidConfig, cfg.Backend)
	}
}
