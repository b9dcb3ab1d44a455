package cart

import (
	"context"

	"github.com/bft-labs/marketcart/pkg/log"
)

// Plugin extends a Store with background behavior, such as reloading the
// cart when another process rewrites it.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize is called by Store.Open after the cart is hydrated.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called by Store.Close and must stop all plugin goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	Store   *Store
	Storage Storage
	Key     string
	Logger  log.Logger
}
