// Package ports defines the interfaces that connect the cart store to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [Storage]: key-value persistence for the serialized cart
//   - [PathProvider]: optional, exposes the backing file of a key
//
// The store in pkg/cart depends only on these interfaces. Adapters under
// internal/adapters (file system, SQLite, Redis, memory) implement them.
package ports
