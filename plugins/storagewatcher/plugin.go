// Package storagewatcher reloads a cart when its storage file is changed
// by another process, so subscribers see the new contents.
package storagewatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/marketcart/internal/ports"
	"github.com/bft-labs/marketcart/pkg/cart"
	"github.com/bft-labs/marketcart/pkg/log"
)

// Plugin watches the directory of a file-backed cart storage.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	store    *cart.Store
	path     string
	logger   log.Logger
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the storage watcher.
type Config struct {
	// DebounceDelay is the quiet period after a change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: 100 * time.Millisecond}
}

// New creates a storage watcher plugin.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// WithStorageWatcher returns a cart Option that registers the watcher.
//
//	store := cart.New(storage, storagewatcher.WithStorageWatcher(storagewatcher.DefaultConfig()))
func WithStorageWatcher(cfg Config) cart.Option {
	return cart.WithPlugin(New(cfg))
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "storagewatcher"
}

// Initialize starts watching the cart file. Storages without a backing
// file leave the plugin idle.
func (p *Plugin) Initialize(ctx context.Context, cfg cart.PluginConfig) error {
	pp, ok := cfg.Storage.(ports.PathProvider)
	if !ok {
		cfg.Logger.Warn("storage watcher disabled: storage has no backing file")
		return nil
	}

	path := pp.Path(cfg.Key)
	dir := filepath.Dir(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// The directory is created on first write; make sure it exists so
	// the watch can be placed before the cart is ever saved.
	if err := ensureDir(dir); err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	p.mu.Lock()
	p.store = cfg.Store
	p.path = path
	p.logger = cfg.Logger
	p.watcher = watcher
	p.mu.Unlock()

	watchCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	p.logger.Info("storage watcher started", log.String("path", path))
	return nil
}

// Shutdown stops the watcher and waits for pending reloads.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	p.mu.Lock()
	p.stopPending()
	p.mu.Unlock()

	p.wg.Wait()
	return p.watcher.Close()
}

func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("storage watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopPending()

	p.wg.Add(1)
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		defer p.wg.Done()
		if ctx.Err() != nil {
			return
		}
		if err := p.store.Reload(ctx); err != nil {
			p.logger.Warn("reload cart after external change", log.Err(err))
		}
	})
}

// stopPending cancels a scheduled reload. The caller holds p.mu.
func (p *Plugin) stopPending() {
	if p.debounce != nil && p.debounce.Stop() {
		p.wg.Done()
	}
	p.debounce = nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o700)
}

var _ cart.Plugin = (*Plugin)(nil)
