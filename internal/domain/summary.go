package domain

import "github.com/shopspring/decimal"

// Summary holds the totals shown next to a cart.
type Summary struct {
	// Lines is the number of distinct items.
	Lines int `json:"lines"`

	// Units is the sum of all quantities.
	Units int `json:"units"`

	// Total is the sum of price * quantity, computed in decimal.
	Total decimal.Decimal `json:"total"`
}

// Summarize computes the totals for items.
func Summarize(items []CartItem) Summary {
	s := Summary{Lines: len(items), Total: decimal.Zero}
	for _, item := range items {
		s.Units += item.Quantity
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		s.Total = s.Total.Add(line)
	}
	return s
}
