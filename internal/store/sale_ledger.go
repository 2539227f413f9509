package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/pos-ledger/internal/domain"
	"github.com/mvoronin/pos-ledger/internal/logger"
)

const (
	saleHeaderFieldCount = 6
	saleItemFieldCount   = 5

	// ISO-8601 local date-time, no zone. Matches what Append writes;
	// parseTimestamp also accepts a fractional-seconds variant.
	timestampLayout         = "2006-01-02T15:04:05"
	timestampLayoutFraction = "2006-01-02T15:04:05.999999999"
)

// ProductResolver resolves catalog entries while reconstructing sales.
// The product store satisfies it.
type ProductResolver interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
}

// SaleLedger is the append-only sale history, split across two
// pipe-delimited files correlated by sale ID:
//
//	sales:     saleId|timestamp|itemCount|totalAmount|discountAmount|finalAmount
//	saleItems: saleId|productId|quantity|priceAtSale|subtotal
//
// The itemCount field is informational only; the item file is the source
// of truth for a sale's lines.
type SaleLedger struct {
	salesPath string
	itemsPath string
	products  ProductResolver
}

// NewSaleLedger returns a ledger over the given header and item files,
// resolving product names through the given catalog.
func NewSaleLedger(salesPath, itemsPath string, products ProductResolver) *SaleLedger {
	return &SaleLedger{salesPath: salesPath, itemsPath: itemsPath, products: products}
}

// LoadAll reads the whole sale history in ledger order. Line items are
// read first and grouped by sale ID; headers are then resolved against
// the groups. A header with no resolvable items yields a sale with an
// empty item list and a warning, not an error. Malformed lines in either
// file are skipped with a warning.
//
// Monetary fields of a line item are taken verbatim from storage, never
// recomputed from the live catalog price. If the stored subtotal
// disagrees with quantity×priceAtSale the computed value wins and the
// discrepancy is logged.
func (l *SaleLedger) LoadAll(ctx context.Context) ([]domain.SaleRecord, error) {
	log := logger.FromContext(ctx)

	itemsBySale, err := l.loadItemsBySale(ctx)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(l.salesPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("SaleLedger.LoadAll: open %q: %w", l.salesPath, err)
	}
	defer f.Close()

	var sales []domain.SaleRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := parseSaleHeader(line)
		if err != nil {
			log.Warn().Str("line", line).Err(err).Msg("Skipping malformed sale record line")
			continue
		}
		rec.Items = itemsBySale[rec.SaleID]
		if len(rec.Items) == 0 {
			log.Warn().Str("sale_id", rec.SaleID).Msg("Sale has no resolvable line items")
		}
		sales = append(sales, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("SaleLedger.LoadAll: read %q: %w", l.salesPath, err)
	}
	return sales, nil
}

// Append durably writes one sale: the header line first, then one line
// per item. The two writes are not atomic. A header failure aborts with
// nothing written; an item failure leaves the header already durable and
// is reported distinctly so the operator knows manual correction is
// needed. Neither failure is retried here.
func (l *SaleLedger) Append(ctx context.Context, rec domain.SaleRecord) error {
	if err := appendLine(l.salesPath, formatSaleHeader(rec)); err != nil {
		return &LedgerAppendError{Stage: AppendHeader, SaleID: rec.SaleID, Err: err}
	}

	var b strings.Builder
	for _, it := range rec.Items {
		b.WriteString(formatSaleItem(rec.SaleID, it))
		b.WriteByte('\n')
	}
	if err := appendRaw(l.itemsPath, b.String()); err != nil {
		return &LedgerAppendError{Stage: AppendItems, SaleID: rec.SaleID, Err: err}
	}
	return nil
}

// loadItemsBySale reads the item file and groups parsed items by sale ID,
// preserving file order within each sale. An item whose product no longer
// exists in the catalog is dropped with a warning; the sale stays loadable.
func (l *SaleLedger) loadItemsBySale(ctx context.Context) (map[string][]domain.SaleItem, error) {
	log := logger.FromContext(ctx)

	f, err := os.Open(l.itemsPath)
	if os.IsNotExist(err) {
		return map[string][]domain.SaleItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("SaleLedger: open %q: %w", l.itemsPath, err)
	}
	defer f.Close()

	itemsBySale := make(map[string][]domain.SaleItem)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		saleID, productID, quantity, priceAtSale, storedSubtotal, err := parseSaleItem(line)
		if err != nil {
			log.Warn().Str("line", line).Err(err).Msg("Skipping malformed sale item line")
			continue
		}

		product, err := l.products.GetByID(ctx, productID)
		if errors.Is(err, ErrNotFound) {
			log.Warn().
				Str("sale_id", saleID).
				Str("product_id", productID).
				Msg("Product no longer exists, dropping sale item")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("SaleLedger: resolve product %q: %w", productID, err)
		}

		item := domain.NewSaleItem(productID, product.Name, quantity, priceAtSale)
		if !item.Subtotal.Equal(storedSubtotal) {
			log.Warn().
				Str("sale_id", saleID).
				Str("product_id", productID).
				Str("stored", storedSubtotal.String()).
				Str("computed", item.Subtotal.String()).
				Msg("Subtotal mismatch for loaded sale item, using computed value")
		}
		itemsBySale[saleID] = append(itemsBySale[saleID], item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("SaleLedger: read %q: %w", l.itemsPath, err)
	}
	return itemsBySale, nil
}

func parseSaleHeader(line string) (domain.SaleRecord, error) {
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) != saleHeaderFieldCount {
		return domain.SaleRecord{}, fmt.Errorf("expected %d fields, got %d", saleHeaderFieldCount, len(parts))
	}
	ts, err := parseTimestamp(parts[1])
	if err != nil {
		return domain.SaleRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	// parts[2] is the informational item count; the item file is authoritative.
	total, err := decimal.NewFromString(parts[3])
	if err != nil {
		return domain.SaleRecord{}, fmt.Errorf("total amount: %w", err)
	}
	discount, err := decimal.NewFromString(parts[4])
	if err != nil {
		return domain.SaleRecord{}, fmt.Errorf("discount amount: %w", err)
	}
	final, err := decimal.NewFromString(parts[5])
	if err != nil {
		return domain.SaleRecord{}, fmt.Errorf("final amount: %w", err)
	}
	return domain.SaleRecord{
		SaleID:         parts[0],
		Timestamp:      ts,
		TotalAmount:    total,
		DiscountAmount: discount,
		FinalAmount:    final,
	}, nil
}

func parseSaleItem(line string) (saleID, productID string, quantity int, priceAtSale, subtotal decimal.Decimal, err error) {
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) != saleItemFieldCount {
		err = fmt.Errorf("expected %d fields, got %d", saleItemFieldCount, len(parts))
		return
	}
	quantity, err = strconv.Atoi(parts[2])
	if err != nil {
		err = fmt.Errorf("quantity: %w", err)
		return
	}
	priceAtSale, err = decimal.NewFromString(parts[3])
	if err != nil {
		err = fmt.Errorf("price at sale: %w", err)
		return
	}
	subtotal, err = decimal.NewFromString(parts[4])
	if err != nil {
		err = fmt.Errorf("subtotal: %w", err)
		return
	}
	return parts[0], parts[1], quantity, priceAtSale, subtotal, nil
}

func formatSaleHeader(rec domain.SaleRecord) string {
	return strings.Join([]string{
		rec.SaleID,
		rec.Timestamp.Format(timestampLayout),
		strconv.Itoa(len(rec.Items)),
		rec.TotalAmount.String(),
		rec.DiscountAmount.String(),
		rec.FinalAmount.String(),
	}, fieldDelimiter)
}

func formatSaleItem(saleID string, it domain.SaleItem) string {
	return strings.Join([]string{
		saleID,
		it.ProductID,
		strconv.Itoa(it.Quantity),
		it.PriceAtSale.String(),
		it.Subtotal.String(),
	}, fieldDelimiter)
}

func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.ParseInLocation(timestampLayout, s, time.Local)
	if err == nil {
		return ts, nil
	}
	return time.ParseInLocation(timestampLayoutFraction, s, time.Local)
}

func appendLine(path, line string) error {
	return appendRaw(path, line+"\n")
}

func appendRaw(path, data string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %q for append: %w", path, err)
	}
	if _, err := f.WriteString(data); err != nil {
		f.Close()
		return fmt.Errorf("append to %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	return nil
}
