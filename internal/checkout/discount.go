package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Discount is a resolved discount against a known cart total.
type Discount struct {
	Amount decimal.Decimal
	// Adjusted is true when the requested absolute amount exceeded the
	// cart total and was clamped down to it.
	Adjusted bool
}

// ResolveDiscount parses a discount specification against the
// pre-discount total. A spec ending in "%" is a percentage in [0,100] of
// the total, rounded half-up to 2 decimal places; anything else is an
// absolute amount. An absolute amount larger than the total is clamped
// to the total so the final amount can never go negative. An empty spec
// means no discount.
func ResolveDiscount(spec string, total decimal.Decimal) (Discount, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Discount{Amount: decimal.Zero}, nil
	}

	if strings.HasSuffix(spec, "%") {
		pct, err := decimal.NewFromString(strings.TrimSuffix(spec, "%"))
		if err != nil {
			return Discount{}, fmt.Errorf("%w: %q: %v", ErrInvalidDiscount, spec, err)
		}
		if pct.IsNegative() || pct.GreaterThan(oneHundred) {
			return Discount{}, fmt.Errorf("%w: percentage %s must be between 0 and 100", ErrInvalidDiscount, pct)
		}
		return Discount{Amount: total.Mul(pct).Div(oneHundred).Round(2)}, nil
	}

	amount, err := decimal.NewFromString(spec)
	if err != nil {
		return Discount{}, fmt.Errorf("%w: %q: %v", ErrInvalidDiscount, spec, err)
	}
	if amount.IsNegative() {
		return Discount{}, fmt.Errorf("%w: amount %s is negative", ErrInvalidDiscount, amount)
	}
	amount = amount.Round(2)
	if amount.GreaterThan(total) {
		return Discount{Amount: total, Adjusted: true}, nil
	}
	return Discount{Amount: amount}, nil
}
