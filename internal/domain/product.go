package domain

import "github.com/shopspring/decimal"

// Product is one catalog entry. Identity is the ID, which never changes
// after creation; everything else is mutable through the product store.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal // unit price, non-negative
	Category  string
	ImagePath string // opaque path for the UI layer, not validated here
	Stock     int    // units on hand, never negative
}
