// Package cart provides the shopping-cart store of a storefront client.
//
// A [Store] keeps the ordered list of cart lines in memory and mirrors the
// whole list to a key-value [Storage] on every mutation. It is hydrated once
// at startup and then changed through AddToCart, Increment and Decrement.
//
// # Usage
//
//	storage, err := cart.OpenStorage(ctx, cart.StorageConfig{Backend: cart.BackendFile, Dir: dir})
//	if err != nil {
//	    return err
//	}
//	store := cart.New(storage)
//	if err := store.Open(ctx); err != nil {
//	    return err
//	}
//	defer store.Close(ctx)
//
//	unsubscribe := store.Subscribe(func(items []cart.Item) { render(items) })
//	defer unsubscribe()
//
//	_ = store.AddToCart(ctx, cart.Product{ID: "a", Title: "Mug", Price: 10})
//
// # Persistence
//
// Each mutation computes the new list, writes it, then swaps it in and
// notifies subscribers. With the default [PersistBestEffort] policy a failed
// write is logged and the in-memory list still advances. [PersistStrict]
// reports the failure and keeps the previous list.
//
// # Passing the store around
//
// Prefer handing the *Store to the components that need it. Code that only
// carries a context can use [NewContext] and [MustFromContext].
package cart
