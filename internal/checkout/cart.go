package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/pos-ledger/internal/domain"
	"github.com/mvoronin/pos-ledger/internal/store"
)

// Catalog is the slice of the product store the checkout flow needs.
type Catalog interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) error
}

// Cart is the mutable, uncommitted working set of sale lines, ordered by
// first add. Each line is a value snapshot: the unit price is captured
// when the product first enters the cart and survives later catalog
// price changes. Stock checks always re-fetch the live product.
type Cart struct {
	items []domain.SaleItem
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddItem adds up to quantity units of a product to the cart. The
// request is checked against live stock minus what is already in the
// cart and capped to what remains available; the capped count is
// returned so the caller can tell the operator. Fails with
// ErrInsufficientStock when nothing at all can be added and with
// ErrProductMissing when the product does not exist.
func (c *Cart) AddItem(ctx context.Context, catalog Catalog, productID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("AddItem: quantity must be positive, got %d", quantity)
	}

	product, err := catalog.GetByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("AddItem: %w: %s", ErrProductMissing, productID)
	}
	if err != nil {
		return 0, fmt.Errorf("AddItem: %w", err)
	}

	inCart := c.quantityOf(productID)
	available := product.Stock - inCart
	if available <= 0 {
		return 0, fmt.Errorf("AddItem: %w: %s has %d in stock, %d already in cart",
			ErrInsufficientStock, productID, product.Stock, inCart)
	}
	if quantity > available {
		quantity = available
	}

	for i, it := range c.items {
		if it.ProductID == productID {
			c.items[i] = it.WithQuantity(it.Quantity + quantity)
			return quantity, nil
		}
	}
	c.items = append(c.items, domain.NewSaleItem(productID, product.Name, quantity, product.Price))
	return quantity, nil
}

// SetQuantity changes the quantity of an existing cart line after
// re-checking live stock. The price captured at first add is kept.
func (c *Cart) SetQuantity(ctx context.Context, catalog Catalog, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("SetQuantity: quantity must be positive, got %d", quantity)
	}
	idx := -1
	for i, it := range c.items {
		if it.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("SetQuantity: product %s is not in the cart", productID)
	}

	product, err := catalog.GetByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("SetQuantity: %w: %s", ErrProductMissing, productID)
	}
	if err != nil {
		return fmt.Errorf("SetQuantity: %w", err)
	}
	if quantity > product.Stock {
		return fmt.Errorf("SetQuantity: %w: %s has %d in stock, requested %d",
			ErrInsufficientStock, productID, product.Stock, quantity)
	}

	c.items[idx] = c.items[idx].WithQuantity(quantity)
	return nil
}

// Remove drops a product's line from the cart and reports whether it was present.
func (c *Cart) Remove(productID string) bool {
	for i, it := range c.items {
		if it.ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []domain.SaleItem {
	out := make([]domain.SaleItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total returns the pre-discount sum of all line subtotals.
func (c *Cart) Total() decimal.Decimal {
	return domain.SumSubtotals(c.items)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Clear discards all lines.
func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) quantityOf(productID string) int {
	for _, it := range c.items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}
