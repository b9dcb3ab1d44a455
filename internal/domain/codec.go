package domain

import (
	"encoding/json"
	"fmt"
)

// Encode serializes the cart to its stored text form, a JSON array.
// An empty cart encodes as "[]".
func Encode(items []CartItem) (string, error) {
	if items == nil {
		items = []CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored cart and checks its invariants.
// Any failure is reported as ErrCorruptCart.
func Decode(data string) ([]CartItem, error) {
	var items []CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	if err := Validate(items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	if items == nil {
		items = []CartItem{}
	}
	return items, nil
}
