// Package fs provides a ports.Storage that keeps each key in its own file.
package fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/bft-labs/marketcart/internal/ports"
)

const fileExt = ".json"

// Storage implements ports.Storage on a directory.
// The file name is the query-escaped key, so "@GoMarketplace:products"
// lives in "%40GoMarketplace%3Aproducts.json".
type Storage struct {
	dir string

	// serializes writers of the shared temp file
	mu sync.Mutex
}

// NewStorage creates a Storage rooted at dir. The directory is created on
// first write.
func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

// Get reads the value stored under key.
// Returns ok=false and nil error if no file exists for key.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set persists value atomically (write to temp file, then rename).
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	path := s.Path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Path returns the full path of the file holding key.
func (s *Storage) Path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+fileExt)
}

// Dir returns the storage directory.
func (s *Storage) Dir() string {
	return s.dir
}

var (
	_ ports.Storage      = (*Storage)(nil)
	_ ports.PathProvider = (*Storage)(nil)
)
