// Package memory provides an in-process ports.Storage.
package memory

import (
	"context"
	"sync"

	"github.com/bft-labs/marketcart/internal/domain"
	"github.com/bft-labs/marketcart/internal/ports"
)

// Storage keeps values in a map. It is safe for concurrent use.
type Storage struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, domain.ErrStorageClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStorageClosed
	}
	s.values[key] = value
	return nil
}

// Close marks the storage closed. Later calls fail with domain.ErrStorageClosed.
func (s *Storage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var _ ports.Storage = (*Storage)(nil)
