package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCart is returned when committing a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidDiscount is returned for a negative or unparsable discount.
	ErrInvalidDiscount = errors.New("invalid discount")
	// ErrProductMissing is returned when a cart line references a product
	// that no longer exists in the catalog.
	ErrProductMissing = errors.New("product missing")
	// ErrInsufficientStock is returned when live stock cannot cover a
	// cart line. Validation is exhaustive, so nothing has been mutated.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockUpdateError reports stock decrements that failed after the sale
// was already validated. Updated lists products whose decrement is
// durable, Failed those that are not. The catalog no longer matches the
// sold quantities and needs manual correction. No rollback is attempted.
type StockUpdateError struct {
	Updated []string
	Failed  []string
	Err     error
}

func (e *StockUpdateError) Error() string {
	return fmt.Sprintf("stock update failed for products [%s] after sale commitment: %v",
		strings.Join(e.Failed, ", "), e.Err)
}

func (e *StockUpdateError) Unwrap() error { return e.Err }
