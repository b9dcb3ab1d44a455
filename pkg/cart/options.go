package cart

import (
	"github.com/bft-labs/marketcart/internal/domain"
	"github.com/bft-labs/marketcart/pkg/log"
)

// DefaultKey is the storage key the cart is written under.
const DefaultKey = domain.DefaultKey

// PersistPolicy decides what a mutation does when the storage write fails.
type PersistPolicy int

const (
	// PersistBestEffort logs the failure and still advances the in-memory cart.
	PersistBestEffort PersistPolicy = iota

	// PersistStrict returns an error wrapping ErrPersist and keeps the
	// previous in-memory cart.
	PersistStrict
)

// String returns the policy name as used in configuration.
func (p PersistPolicy) String() string {
	switch p {
	case PersistBestEffort:
		return "best-effort"
	case PersistStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// Option configures optional behavior of a Store.
type Option func(*options)

type options struct {
	key       string
	logger    log.Logger
	policy    PersistPolicy
	plugins   []Plugin
	listeners []Listener
}

func defaultOptions() options {
	return options{
		key:    DefaultKey,
		logger: log.NewNoopLogger(),
		policy: PersistBestEffort,
	}
}

// WithKey sets the storage key. Empty keys are ignored.
func WithKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.key = key
		}
	}
}

// WithLogger sets a logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPersistPolicy sets the behavior on storage write failures.
func WithPersistPolicy(p PersistPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithPlugin registers a plugin to be initialized by Open.
// Plugins are initialized in registration order and shut down in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithListener subscribes fn before hydration, so it also sees the loaded cart.
func WithListener(fn Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, fn)
	}
}
