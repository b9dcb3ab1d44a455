package ports

import "context"

// Storage is the key-value store a cart is persisted to.
// Values are opaque strings; the cart writes its whole serialized
// sequence under a single key on every mutation.
type Storage interface {
	// Get returns the value stored under key.
	// ok is false and err is nil when nothing is stored.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// PathProvider is implemented by storages that keep each key in its own file.
type PathProvider interface {
	// Path returns the file that holds key.
	Path(key string) string
}
