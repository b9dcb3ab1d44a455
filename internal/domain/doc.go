// Package domain contains the cart entities and the pure operations over them.
//
// This package is the innermost layer. It has no dependencies on storage,
// logging or configuration and never mutates the slices passed to it: every
// operation returns a fresh sequence that callers swap in.
//
// # Entities
//
//   - [Product]: a catalog entry as handed to AddToCart (no quantity yet)
//   - [CartItem]: one line of the cart with its quantity
//   - [Summary]: derived totals for display
//
// # Invariants
//
// A cart is an ordered []CartItem. Order is insertion order, ids are unique
// and every quantity is at least 1. An item whose quantity would drop to zero
// is removed from the sequence instead.
package domain
