package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary amount and rejects negative values.
// Prices, fees and totals all go through decimal arithmetic; floats are
// never used for money.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q is negative", s)
	}
	return d, nil
}

// FormatAmount renders an amount with two decimal places, the form the
// payment provider and the API responses use.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
