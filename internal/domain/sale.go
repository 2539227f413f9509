package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is one line of a sale. It is a value snapshot: name and unit
// price are captured when the item enters a cart and are never re-read
// from the live catalog, so a later rename or price change does not
// rewrite history.
type SaleItem struct {
	ProductID   string
	Name        string // product name at sale time
	Quantity    int
	PriceAtSale decimal.Decimal
	Subtotal    decimal.Decimal // Quantity × PriceAtSale
}

// NewSaleItem builds a sale item with the subtotal computed from
// quantity and unit price.
func NewSaleItem(productID, name string, quantity int, priceAtSale decimal.Decimal) SaleItem {
	return SaleItem{
		ProductID:   productID,
		Name:        name,
		Quantity:    quantity,
		PriceAtSale: priceAtSale,
		Subtotal:    priceAtSale.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// WithQuantity returns a copy with the quantity changed and the subtotal
// recomputed.
func (i SaleItem) WithQuantity(quantity int) SaleItem {
	i.Quantity = quantity
	i.Subtotal = i.PriceAtSale.Mul(decimal.NewFromInt(int64(quantity)))
	return i
}

// SaleRecord is one committed sale. Immutable once created; only the
// transaction coordinator builds new records.
type SaleRecord struct {
	SaleID         string
	Timestamp      time.Time
	Cashier        string // attribution for receipts; not part of the persisted header
	Items          []SaleItem
	TotalAmount    decimal.Decimal // sum of item subtotals
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal // TotalAmount − DiscountAmount, floored at zero
}

// NewSaleRecord assembles a committed sale from cart items and an
// already-resolved discount. The sale ID is a fresh UUID and the
// timestamp is taken now.
func NewSaleRecord(items []SaleItem, discount decimal.Decimal, cashier string) SaleRecord {
	total := SumSubtotals(items)
	final := total.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return SaleRecord{
		SaleID:         uuid.NewString(),
		Timestamp:      time.Now(),
		Cashier:        cashier,
		Items:          items,
		TotalAmount:    total,
		DiscountAmount: discount,
		FinalAmount:    final,
	}
}

// SumSubtotals adds up the subtotals of the given items.
func SumSubtotals(items []SaleItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}
