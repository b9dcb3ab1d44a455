// Package redis provides a Redis-backed ports.Storage guarded by a
// circuit breaker.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/bft-labs/marketcart/internal/ports"
	"github.com/bft-labs/marketcart/pkg/log"
)

// Options configures the Redis storage.
type Options struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix is prepended to every key, e.g. "device-42:".
	KeyPrefix string

	// TTL expires the stored cart; zero keeps it forever.
	TTL time.Duration

	// MaxRetries is passed to the client; -1 disables retries.
	MaxRetries int

	// DialTimeout bounds connection setup. Default: 3 seconds.
	DialTimeout time.Duration
}

// Storage implements ports.Storage on Redis strings.
type Storage struct {
	rdb    *goredis.Client
	cb     *gobreaker.CircuitBreaker
	prefix string
	ttl    time.Duration
}

// NewStorage creates a Storage. The connection is established lazily.
func NewStorage(opts Options, logger log.Logger) *Storage {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		MaxRetries:  opts.MaxRetries,
		DialTimeout: opts.DialTimeout,
	})

	st := gobreaker.Settings{
		Name:        "cart-redis",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		// A missing key is a normal answer, not a failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, goredis.Nil)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("redis circuit breaker state changed",
				log.String("breaker", name),
				log.String("from", from.String()),
				log.String("to", to.String()),
			)
		},
	}

	return &Storage{
		rdb:    rdb,
		cb:     gobreaker.NewCircuitBreaker(st),
		prefix: opts.KeyPrefix,
		ttl:    opts.TTL,
	}
}

// Ping checks connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get returns the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.rdb.Get(ctx, s.prefix+key).Result()
	})
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return res.(string), true, nil
}

// Set stores value under key.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.rdb.Set(ctx, s.prefix+key, value, s.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// BreakerState reports the circuit breaker state.
func (s *Storage) BreakerState() gobreaker.State {
	return s.cb.State()
}

// Close closes the client.
func (s *Storage) Close() error {
	return s.rdb.Close()
}

var _ ports.Storage = (*Storage)(nil)
