package domain

import (
	"fmt"
	"strings"
)

// DefaultKey is the storage key the cart is kept under.
const DefaultKey = "@GoMarketplace:products"

// Clone returns a copy of items that shares no backing array with it.
// A nil or empty input yields an empty, non-nil slice.
func Clone(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}

// Find returns the item with the given id.
func Find(items []CartItem, id string) (CartItem, bool) {
	if i := indexOf(items, id); i >= 0 {
		return items[i], true
	}
	return CartItem{}, false
}

// Increment returns a copy of items with the quantity of id raised by one.
// When id is absent it returns items unchanged and false.
func Increment(items []CartItem, id string) ([]CartItem, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	out := Clone(items)
	out[i].Quantity++
	return out, true
}

// Decrement returns a copy of items with the quantity of id lowered by one.
// An item at quantity 1 is dropped. An absent id yields an equal copy.
func Decrement(items []CartItem, id string) []CartItem {
	out := make([]CartItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
			continue
		}
		if item.Quantity <= 1 {
			continue
		}
		item.Quantity--
		out = append(out, item)
	}
	return out
}

// Append returns a copy of items with p added at the end with quantity 1.
// Callers check for an existing line first; Append does not merge.
func Append(items []CartItem, p Product) []CartItem {
	out := make([]CartItem, len(items), len(items)+1)
	copy(out, items)
	return append(out, NewCartItem(p))
}

// Equal reports whether a and b hold the same lines in the same order.
func Equal(a, b []CartItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Validate checks the cart invariants: non-empty unique ids and
// quantities of at least one.
func Validate(items []CartItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return fmt.Errorf("item %d: empty id", i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("item %d: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Quantity < 1 {
			return fmt.Errorf("item %q: quantity %d below 1", item.ID, item.Quantity)
		}
	}
	return nil
}

func indexOf(items []CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
