package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal currency string ("500000", "12.50") and
// rejects negative values. Currency travels as strings on the wire to avoid
// float precision loss.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative")
	}
	return d.Round(2), nil
}

// Round2 rounds to 2 decimal places (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
