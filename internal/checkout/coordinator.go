package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/mvoronin/pos-ledger/internal/domain"
	"github.com/mvoronin/pos-ledger/internal/logger"
	"github.com/mvoronin/pos-ledger/internal/store"
)

// Ledger is the slice of the sale ledger the coordinator needs.
type Ledger interface {
	Append(ctx context.Context, rec domain.SaleRecord) error
}

// Session identifies the operator on whose behalf a sale is committed.
// It is threaded explicitly into CommitSale rather than held in any
// process-wide state; it only feeds receipt attribution.
type Session struct {
	Username string
	Role     domain.Role
}

// NewSession builds a session for an authenticated user.
func NewSession(u domain.User) Session {
	return Session{Username: u.Username, Role: u.Role}
}

// CommitResult is the outcome of a successful (or partially successful)
// sale commit.
type CommitResult struct {
	Sale domain.SaleRecord
	// DiscountAdjusted is true when the requested absolute discount
	// exceeded the cart total and was clamped.
	DiscountAdjusted bool
	// StockFailure is non-nil when one or more stock decrements failed
	// after validation. The sale is still recorded, but the catalog no
	// longer matches the sold quantities and needs manual correction.
	StockFailure *StockUpdateError
}

// Coordinator commits carts: it re-validates the cart against live
// stock, decrements inventory through the catalog, and appends the
// committed sale to the ledger. The two stores are persisted
// independently, so the commit is not transactional; the failure
// contract below spells out which states can leak.
type Coordinator struct {
	catalog Catalog
	ledger  Ledger
}

// NewCoordinator wires a coordinator over a catalog and a ledger.
func NewCoordinator(catalog Catalog, ledger Ledger) *Coordinator {
	return &Coordinator{catalog: catalog, ledger: ledger}
}

// CommitSale finalizes the cart into a persisted sale.
//
// Order of operations:
//  1. Resolve the discount against the cart total (clean abort on
//     ErrInvalidDiscount).
//  2. Re-fetch every referenced product and validate stock exhaustively
//     (clean abort on ErrProductMissing / ErrInsufficientStock; nothing
//     has been mutated yet).
//  3. Decrement stock line by line through Catalog.Update. A failure
//     here does not stop the commit: the sale is still recorded and the
//     failure is surfaced in CommitResult.StockFailure.
//  4. Append the sale to the ledger. If this fails, stock is already
//     decremented and is not rolled back; the returned error wraps
//     *store.LedgerAppendError and CommitResult.Sale carries the record
//     that failed to persist.
//
// On success the cart is cleared. Unit prices come from the cart lines
// (captured at add time), never from the re-fetched products.
func (c *Coordinator) CommitSale(ctx context.Context, sess Session, cart *Cart, discountSpec string) (CommitResult, error) {
	log := logger.FromContext(ctx)

	if cart.IsEmpty() {
		return CommitResult{}, ErrEmptyCart
	}
	items := cart.Items()
	total := domain.SumSubtotals(items)

	disc, err := ResolveDiscount(discountSpec, total)
	if err != nil {
		return CommitResult{}, fmt.Errorf("CommitSale: %w", err)
	}

	// Exhaustive validation before any mutation: every line is checked
	// against the current catalog so the cart is never partially fulfilled.
	current := make(map[string]domain.Product, len(items))
	for _, it := range items {
		p, err := c.catalog.GetByID(ctx, it.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return CommitResult{}, fmt.Errorf("CommitSale: %w: %s", ErrProductMissing, it.ProductID)
		}
		if err != nil {
			return CommitResult{}, fmt.Errorf("CommitSale: %w", err)
		}
		if p.Stock < it.Quantity {
			return CommitResult{}, fmt.Errorf("CommitSale: %w: %s has %d in stock, cart wants %d",
				ErrInsufficientStock, it.ProductID, p.Stock, it.Quantity)
		}
		current[it.ProductID] = p
	}

	var stockFailure *StockUpdateError
	var updated, failed []string
	for _, it := range items {
		p := current[it.ProductID]
		p.Stock -= it.Quantity
		if err := c.catalog.Update(ctx, p); err != nil {
			failed = append(failed, it.ProductID)
			if stockFailure == nil {
				stockFailure = &StockUpdateError{Err: err}
			}
			log.Error().
				Str("product_id", it.ProductID).
				Err(err).
				Msg("Critical: stock decrement failed after sale commitment, manual correction needed")
			continue
		}
		updated = append(updated, it.ProductID)
	}
	if stockFailure != nil {
		stockFailure.Updated = updated
		stockFailure.Failed = failed
	}

	rec := domain.NewSaleRecord(items, disc.Amount, sess.Username)
	if err := c.ledger.Append(ctx, rec); err != nil {
		log.Error().
			Str("sale_id", rec.SaleID).
			Err(err).
			Msg("Critical: ledger append failed after stock was decremented")
		return CommitResult{Sale: rec, DiscountAdjusted: disc.Adjusted, StockFailure: stockFailure},
			fmt.Errorf("CommitSale: %w", err)
	}

	cart.Clear()
	return CommitResult{Sale: rec, DiscountAdjusted: disc.Adjusted, StockFailure: stockFailure}, nil
}
