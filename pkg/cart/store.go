package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bft-labs/marketcart/internal/domain"
	"github.com/bft-labs/marketcart/internal/ports"
	"github.com/bft-labs/marketcart/pkg/log"
)

type (
	// Item is one line of the cart.
	Item = domain.CartItem

	// Product is what AddToCart accepts: an item without quantity.
	Product = domain.Product

	// Summary holds the cart totals.
	Summary = domain.Summary

	// Storage is the key-value store the cart is persisted to.
	Storage = ports.Storage
)

// Errors returned by the store. Check them with errors.Is.
var (
	ErrInvalidProduct = domain.ErrInvalidProduct
	ErrCorruptCart    = domain.ErrCorruptCart
	ErrPersist        = domain.ErrPersist
	ErrInvalidConfig  = domain.ErrInvalidConfig
)

// Listener receives a copy of the cart after every change.
type Listener func(items []Item)

type subscription struct {
	id int
	fn Listener
}

// Store holds the cart and mirrors it to storage.
// All methods are safe for concurrent use.
type Store struct {
	storage Storage
	key     string
	logger  log.Logger
	policy  PersistPolicy
	plugins []Plugin

	// opMu serializes operations from snapshot to notification.
	opMu sync.Mutex

	stateMu sync.RWMutex
	items   []Item

	// saved is the last blob read from or written to storage; dirty is
	// set while the in-memory cart is ahead of it. Both guarded by opMu.
	saved string
	dirty bool

	subMu   sync.Mutex
	subs    []subscription
	nextSub int

	// guards plugin lifecycle
	lifeMu      sync.Mutex
	opened      bool
	initialized []Plugin
}

// New creates a Store with an empty cart. Call Open (or Load) to hydrate it.
func New(storage Storage, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		storage: storage,
		key:     o.key,
		logger:  o.logger,
		policy:  o.policy,
		plugins: o.plugins,
		items:   []Item{},
	}
	for _, fn := range o.listeners {
		s.Subscribe(fn)
	}
	return s
}

// Key returns the storage key of the cart.
func (s *Store) Key() string { return s.key }

// Storage returns the backing storage.
func (s *Store) Storage() Storage { return s.storage }

// Products returns a copy of the cart lines in insertion order.
func (s *Store) Products() []Item {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return domain.Clone(s.items)
}

// Summary returns the cart totals.
func (s *Store) Summary() Summary {
	return domain.Summarize(s.Products())
}

// Open hydrates the cart and initializes plugins.
// A cart that cannot be read or decoded is treated as no prior cart.
func (s *Store) Open(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.opened {
		return nil
	}

	if err := s.Load(ctx); err != nil {
		s.logger.Warn("no prior cart loaded", log.String("key", s.key), log.Err(err))
	}

	cfg := PluginConfig{Store: s, Storage: s.storage, Key: s.key, Logger: s.logger}
	for _, p := range s.plugins {
		if err := p.Initialize(ctx, cfg); err != nil {
			s.shutdownPlugins(ctx)
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		s.initialized = append(s.initialized, p)
		s.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	s.opened = true
	return nil
}

// Close shuts plugins down in reverse order and closes the storage when it
// implements io.Closer.
func (s *Store) Close(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	err := s.shutdownPlugins(ctx)
	s.opened = false

	if c, ok := s.storage.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close storage: %w", cerr))
		}
	}
	return err
}

func (s *Store) shutdownPlugins(ctx context.Context) error {
	var errs []error
	for i := len(s.initialized) - 1; i >= 0; i-- {
		p := s.initialized[i]
		if err := p.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown plugin %s: %w", p.Name(), err))
		}
	}
	s.initialized = nil
	return errors.Join(errs...)
}

// Load reads the stored cart and replaces the in-memory one with it.
// Nothing stored leaves the cart as it is. A read or decode failure also
// leaves the cart untouched and is returned (decode failures wrap
// ErrCorruptCart). Subscribers are notified only when the cart changed.
func (s *Store) Load(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.load(ctx, false)
}

// Reload picks up a cart written to storage by someone else. Unlike Load
// it ignores the store's own last write, and it keeps an in-memory cart
// whose last change could not be persisted: the next successful write
// overwrites the external one.
func (s *Store) Reload(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.load(ctx, true)
}

func (s *Store) load(ctx context.Context, external bool) error {
	data, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}
	if !ok {
		s.logger.Debug("no stored cart", log.String("key", s.key))
		return nil
	}

	if external {
		if data == s.saved {
			return nil
		}
		if s.dirty {
			s.logger.Warn("external cart change ignored, local changes not persisted",
				log.String("key", s.key))
			return nil
		}
	}

	items, err := domain.Decode(data)
	if err != nil {
		return err
	}
	s.saved = data
	s.dirty = false
	if domain.Equal(items, s.snapshot()) {
		return nil
	}

	s.replace(items)
	s.logger.Debug("cart loaded", log.String("key", s.key), log.Int("lines", len(items)))
	return nil
}

// Increment raises the quantity of id by one and persists the cart.
// It reports false, without writing, when id is not in the cart.
func (s *Store) Increment(ctx context.Context, id string) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.increment(ctx, id)
}

func (s *Store) increment(ctx context.Context, id string) (bool, error) {
	next, found := domain.Increment(s.snapshot(), id)
	if !found {
		return false, nil
	}
	return true, s.commit(ctx, "increment", id, next)
}

// Decrement lowers the quantity of id by one, removing the line when it
// reaches zero. The resulting cart is always written, even when id is absent.
func (s *Store) Decrement(ctx context.Context, id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	next := domain.Decrement(s.snapshot(), id)
	return s.commit(ctx, "decrement", id, next)
}

// AddToCart increments p when it is already in the cart, otherwise appends
// it with quantity 1.
func (s *Store) AddToCart(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	found, err := s.increment(ctx, p.ID)
	if found {
		return err
	}

	next := domain.Append(s.snapshot(), p)
	return s.commit(ctx, "add", p.ID, next)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.commit(ctx, "clear", "", []Item{})
}

// Subscribe registers fn to receive the cart after every change.
// Listeners run synchronously, in subscription order, after the change is
// in place. They may read the store and unsubscribe but must not call
// mutating methods synchronously. The returned func removes fn.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// commit writes next, then swaps it in. The caller holds opMu.
func (s *Store) commit(ctx context.Context, op, id string, next []Item) error {
	data, err := domain.Encode(next)
	if err != nil {
		return err
	}

	if err := s.storage.Set(ctx, s.key, data); err != nil {
		if s.policy == PersistStrict {
			s.logger.Warn("cart not persisted, change dropped",
				log.String("op", op), log.String("id", id), log.Err(err))
			return fmt.Errorf("%s: %w: %w", op, ErrPersist, err)
		}
		s.logger.Warn("cart not persisted, keeping in-memory change",
			log.String("op", op), log.String("id", id), log.Err(err))
		s.dirty = true
	} else {
		s.saved = data
		s.dirty = false
	}

	s.replace(next)
	s.logger.Debug("cart updated", log.String("op", op), log.String("id", id), log.Int("lines", len(next)))
	return nil
}

func (s *Store) snapshot() []Item {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.items
}

func (s *Store) replace(next []Item) {
	s.stateMu.Lock()
	s.items = next
	s.stateMu.Unlock()
	s.notify(next)
}

func (s *Store) notify(items []Item) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(domain.Clone(items))
	}
}
