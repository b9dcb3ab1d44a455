package domain

import "errors"

// Domain errors represent error conditions in the cart domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidProduct is returned when a product cannot be added to the cart.
	ErrInvalidProduct = errors.New("marketcart: invalid product")

	// ErrCorruptCart is returned when a stored cart cannot be decoded or
	// violates the cart invariants.
	ErrCorruptCart = errors.New("marketcart: corrupt cart data")

	// ErrPersist is returned when the cart could not be written to storage.
	ErrPersist = errors.New("marketcart: persist cart")

	// ErrStorageClosed is returned by storages used after Close.
	ErrStorageClosed = errors.New("marketcart: storage closed")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("marketcart: invalid configuration")
)
