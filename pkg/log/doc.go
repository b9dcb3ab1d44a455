// Package log provides the logging abstraction used across marketcart.
//
// The cart store and its storages log through the Logger interface so that
// embedding applications can route messages into their own pipeline. A
// zerolog-backed implementation is the default for the CLI and a no-op
// logger is the default for library use.
//
//	logger := log.NewZerologAdapter(os.Stderr, "debug")
//	store := cart.New(storage, cart.WithLogger(logger))
package log
