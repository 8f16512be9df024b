package token

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatter_Balance verifies the fixed four-digit rendering.
func TestFormatter_Balance(t *testing.T) {
	f := NewFormatter("en")

	tests := []struct {
		name     string
		amount   decimal.Decimal
		expected string
	}{
		{name: "fraction filled exactly", amount: FromRaw(123456789, 4), expected: "12345.6789"},
		{name: "short fraction padded", amount: FromRaw(200000, 6), expected: "0.2000"},
		{name: "zero", amount: decimal.Zero, expected: "0.0000"},
		{name: "integer padded", amount: decimal.NewFromInt(7), expected: "7.0000"},
		{name: "long fraction rounded", amount: decimal.RequireFromString("1.23456"), expected: "1.2346"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Balance(tt.amount))
		})
	}
}

// TestFormatter_Balance_FourFractionDigits verifies every rendering carries
// exactly four digits after the separator.
func TestFormatter_Balance_FourFractionDigits(t *testing.T) {
	f := NewFormatter("en")
	for _, raw := range []uint64{0, 1, 999, 123456789, 1000000000000} {
		out := f.Balance(FromRaw(raw, 6))
		parts := strings.Split(out, ".")
		require.Len(t, parts, 2, "balance %q must carry a fraction", out)
		assert.Len(t, parts[1], 4, "balance %q must carry 4 fraction digits", out)
	}
}

// TestFormatter_Balance_Locale verifies the separator follows the locale.
func TestFormatter_Balance_Locale(t *testing.T) {
	de := NewFormatter("de")
	assert.Equal(t, "12345,6789", de.Balance(FromRaw(123456789, 4)))
}

// TestNewFormatter_FallsBackToEnglish verifies bad locale tags degrade safely.
func TestNewFormatter_FallsBackToEnglish(t *testing.T) {
	for _, locale := range []string{"", "no-such-locale!!"} {
		f := NewFormatter(locale)
		assert.Equal(t, "12345.6789", f.Balance(FromRaw(123456789, 4)))
	}
}
