// Package marketcart wires a cart store from a flat configuration.
//
// Example usage:
//
//	cfg := marketcart.DefaultConfig()
//	cfg.StorageDir = "/path/to/app/data"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	store, err := marketcart.Open(ctx, cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close(ctx)
//
// Library users that already hold a storage can use pkg/cart directly.
package marketcart

import (
	"context"

	"github.com/bft-labs/marketcart/internal/cliconfig"
	"github.com/bft-labs/marketcart/pkg/cart"
	"github.com/bft-labs/marketcart/pkg/log"
	"github.com/bft-labs/marketcart/plugins/storagewatcher"
)

// Config holds the flat configuration of a cart: storage backend, key,
// persistence policy and watcher settings.
type Config = cliconfig.Config

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// DefaultKey is the storage key the cart is kept under.
const DefaultKey = cart.DefaultKey

// Open builds the configured storage and a hydrated store on top of it.
// cfg must have been validated. Extra options are applied after the ones
// derived from cfg, so they can override them.
func Open(ctx context.Context, cfg Config, logger log.Logger, opts ...cart.Option) (*cart.Store, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	storage, err := cart.OpenStorage(ctx, StorageConfig(cfg, logger))
	if err != nil {
		return nil, err
	}

	base := []cart.Option{
		cart.WithKey(cfg.Key),
		cart.WithLogger(logger),
	}
	if cfg.Strict {
		base = append(base, cart.WithPersistPolicy(cart.PersistStrict))
	}
	if cfg.Watch {
		base = append(base, storagewatcher.WithStorageWatcher(storagewatcher.Config{
			DebounceDelay: cfg.WatchDebounce,
		}))
	}

	store := cart.New(storage, append(base, opts...)...)
	if err := store.Open(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return store, nil
}

// StorageConfig maps cfg to the storage settings of pkg/cart.
func StorageConfig(cfg Config, logger log.Logger) cart.StorageConfig {
	return cart.StorageConfig{
		Backend:        cfg.Storage,
		Dir:            cfg.StorageDir,
		SQLitePath:     cfg.SQLitePath,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		RedisKeyPrefix: cfg.RedisKeyPrefix,
		RedisTTL:       cfg.RedisTTL,
		Logger:         logger,
	}
}
