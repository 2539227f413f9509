package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mvoronin/pos-ledger/internal/domain"
)

const csvTimestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"Sale ID",
	"Timestamp",
	"Item Count",
	"Total Amount",
	"Discount Amount",
	"Final Amount",
	"Cashier",
	"Items (ID|Name|Qty|Price|Subtotal)",
}

// WriteCSV writes the given sales as a CSV report: one row per sale,
// all line items packed into the last column as id|name|qty|price|subtotal
// entries joined by ";". Fields containing commas, quotes or newlines
// get standard CSV quoting. Records reloaded from disk carry no cashier,
// so that column falls back to "N/A".
func WriteCSV(w io.Writer, sales []domain.SaleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("WriteCSV: header: %w", err)
	}
	for _, rec := range sales {
		cashier := rec.Cashier
		if cashier == "" {
			cashier = "N/A"
		}
		row := []string{
			rec.SaleID,
			rec.Timestamp.Format(csvTimestampLayout),
			strconv.Itoa(len(rec.Items)),
			rec.TotalAmount.StringFixed(2),
			rec.DiscountAmount.StringFixed(2),
			rec.FinalAmount.StringFixed(2),
			cashier,
			packItems(rec.Items),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteCSV: sale %s: %w", rec.SaleID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV: flush: %w", err)
	}
	return nil
}

func packItems(items []domain.SaleItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, strings.Join([]string{
			it.ProductID,
			it.Name,
			strconv.Itoa(it.Quantity),
			it.PriceAtSale.StringFixed(2),
			it.Subtotal.StringFixed(2),
		}, "|"))
	}
	return strings.Join(parts, ";")
}
