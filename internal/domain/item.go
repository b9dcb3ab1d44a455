package domain

import (
	"fmt"
	"strings"
)

// Product is a catalog entry as offered to the cart.
// It carries everything a CartItem does except the quantity.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

// Validate checks that the product can be placed in a cart.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	return nil
}

// CartItem is one line of the cart.
// JSON field names match the stored cart format.
type CartItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// NewCartItem builds a line for p with quantity 1.
func NewCartItem(p Product) CartItem {
	return CartItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	}
}

// Product returns the item without its quantity.
func (i CartItem) Product() Product {
	return Product{ID: i.ID, Title: i.Title, ImageURL: i.ImageURL, Price: i.Price}
}
