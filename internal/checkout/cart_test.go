package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mvoronin/pos-ledger/internal/domain"
	"github.com/mvoronin/pos-ledger/internal/logger"
	"github.com/mvoronin/pos-ledger/internal/store"
)

// mockCatalog is an in-memory Catalog for testing the checkout flow.
type mockCatalog struct {
	products  map[string]domain.Product
	updateErr map[string]error // injected per-product update failures
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	m := &mockCatalog{
		products:  make(map[string]domain.Product),
		updateErr: make(map[string]error),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) GetByID(ctx context.Context, id string) (domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %q: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (m *mockCatalog) Update(ctx context.Context, p domain.Product) error {
	if err := m.updateErr[p.ID]; err != nil {
		return err
	}
	if _, ok := m.products[p.ID]; !ok {
		return store.ErrNotFound
	}
	m.products[p.ID] = p
	return nil
}

func testCtx() context.Context {
	return logger.WithContext(context.Background(), zerolog.Nop())
}

func price(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func catalogProduct(t *testing.T, id, priceStr string, stock int) domain.Product {
	t.Helper()
	return domain.Product{ID: id, Name: "Item " + id, Price: price(t, priceStr), Stock: stock}
}

func TestCart_AddItem(t *testing.T) {
	ctx := testCtx()
	catalog := newMockCatalog(catalogProduct(t, "P001", "5.00", 10))
	cart := NewCart()

	added, err := cart.AddItem(ctx, catalog, "P001", 3)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if added != 3 {
		t.Errorf("expected 3 added, got %d", added)
	}
	if !cart.Total().Equal(price(t, "15.00")) {
		t.Errorf("expected total 15.00, got %s", cart.Total())
	}

	// Adding the same product again merges into the existing line.
	if _, err := cart.AddItem(ctx, catalog, "P001", 2); err != nil {
		t.Fatalf("second AddItem failed: %v", err)
	}
	items := cart.Items()
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Errorf("expected one line with quantity 5, got %+v", items)
	}
}

func TestCart_AddItemCappedToAvailableStock(t *testing.T) {
	ctx := testCtx()
	catalog := newMockCatalog(catalogProduct(t, "P001", "5.00", 4))
	cart := NewCart()

	added, err := cart.AddItem(ctx, catalog, "P001", 3)
	if err != nil || added != 3 {
		t.Fatalf("AddItem = (%d, %v), want (3, nil)", added, err)
	}

	// Only one unit left once the cart already holds three.
	added, err = cart.AddItem(ctx, catalog, "P001", 5)
	if err != nil {
		t.Fatalf("capped AddItem failed: %v", err)
	}
	if added != 1 {
		t.Errorf("expected the add to be capped to 1, got %d", added)
	}

	// Nothing left at all now.
	if _, err := cart.AddItem(ctx, catalog, "P001", 1); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestCart_AddItemMissingProduct(t *testing.T) {
	cart := NewCart()
	if _, err := cart.AddItem(testCtx(), newMockCatalog(), "P404", 1); !errors.Is(err, ErrProductMissing) {
		t.Errorf("expected ErrProductMissing, got %v", err)
	}
}

func TestCart_AddItemInvalidQuantity(t *testing.T) {
	cart := NewCart()
	if _, err := cart.AddItem(testCtx(), newMockCatalog(), "P001", 0); err == nil {
		t.Error("expected an error for zero quantity")
	}
}

func TestCart_PriceCapturedAtAddTime(t *testing.T) {
	ctx := testCtx()
	catalog := newMockCatalog(catalogProduct(t, "P001", "5.00", 10))
	cart := NewCart()

	if _, err := cart.AddItem(ctx, catalog, "P001", 2); err != nil {
		t.Fatal(err)
	}

	// The catalog price changes after the item entered the cart.
	p := catalog.products["P001"]
	p.Price = price(t, "9.99")
	catalog.products["P001"] = p

	items := cart.Items()
	if !items[0].PriceAtSale.Equal(price(t, "5.00")) {
		t.Errorf("expected the captured price 5.00, got %s", items[0].PriceAtSale)
	}
}

func TestCart_SetQuantity(t *testing.T) {
	ctx := testCtx()
	catalog := newMockCatalog(catalogProduct(t, "P001", "5.00", 10))
	cart := NewCart()

	if _, err := cart.AddItem(ctx, catalog, "P001", 2); err != nil {
		t.Fatal(err)
	}
	if err := cart.SetQuantity(ctx, catalog, "P001", 7); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	items := cart.Items()
	if items[0].Quantity != 7 || !items[0].Subtotal.Equal(price(t, "35.00")) {
		t.Errorf("unexpected line after SetQuantity: %+v", items[0])
	}

	if err := cart.SetQuantity(ctx, catalog, "P001", 11); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	if err := cart.SetQuantity(ctx, catalog, "P404", 1); err == nil {
		t.Error("expected an error for a product not in the cart")
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	ctx := testCtx()
	catalog := newMockCatalog(
		catalogProduct(t, "P001", "5.00", 10),
		catalogProduct(t, "P002", "3.00", 10),
	)
	cart := NewCart()
	if _, err := cart.AddItem(ctx, catalog, "P001", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := cart.AddItem(ctx, catalog, "P002", 1); err != nil {
		t.Fatal(err)
	}

	if !cart.Remove("P001") {
		t.Error("expected Remove to report true")
	}
	if cart.Remove("P001") {
		t.Error("expected second Remove to report false")
	}
	if len(cart.Items()) != 1 {
		t.Errorf("expected one line left, got %d", len(cart.Items()))
	}

	cart.Clear()
	if !cart.IsEmpty() {
		t.Error("expected an empty cart after Clear")
	}
}
