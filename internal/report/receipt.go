package report

import (
	"fmt"
	"strings"

	"github.com/mvoronin/pos-ledger/internal/domain"
)

// RenderReceipt formats a committed sale as a fixed-width plain-text
// receipt for printing or terminal display.
func RenderReceipt(rec domain.SaleRecord) string {
	cashier := rec.Cashier
	if cashier == "" {
		cashier = "N/A"
	}

	var b strings.Builder
	b.WriteString("----------- SALE RECEIPT -----------\n")
	fmt.Fprintf(&b, "Sale ID: %s\n", rec.SaleID)
	fmt.Fprintf(&b, "Date: %s\n", rec.Timestamp.Format(csvTimestampLayout))
	fmt.Fprintf(&b, "Cashier: %s\n", cashier)
	b.WriteString("------------------------------------\n")
	fmt.Fprintf(&b, "%-20s %5s %8s %10s\n", "Item", "Qty", "Price", "Subtotal")
	for _, it := range rec.Items {
		name := it.Name
		if len(name) > 20 {
			name = name[:20]
		}
		fmt.Fprintf(&b, "%-20s %5d %8s %10s\n",
			name, it.Quantity, it.PriceAtSale.StringFixed(2), it.Subtotal.StringFixed(2))
	}
	b.WriteString("------------------------------------\n")
	fmt.Fprintf(&b, "%-27s %8s\n", "Total:", rec.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "%-27s %8s\n", "Discount:", rec.DiscountAmount.StringFixed(2))
	fmt.Fprintf(&b, "%-27s %8s\n", "Final Amount:", rec.FinalAmount.StringFixed(2))
	b.WriteString("------------------------------------\n")
	return b.String()
}
