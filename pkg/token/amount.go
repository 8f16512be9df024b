package token

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FromRaw converts a raw on-chain integer amount into human-readable units
// by shifting the decimal point left by the token's precision.
func FromRaw(raw uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromUint64(raw).Shift(-decimals)
}

// FromRawString converts a decimal-string raw amount (the wire encoding used
// for uint64 fields too wide for JSON numbers) into human-readable units.
// An empty string counts as zero.
func FromRawString(raw string, decimals int32) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse raw amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative raw amount %q", raw)
	}
	return d.Shift(-decimals), nil
}
