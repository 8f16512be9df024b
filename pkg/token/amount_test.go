package token

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromRaw verifies raw-to-human conversion across precisions.
func TestFromRaw(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint64
		decimals int32
		expected string
	}{
		{name: "six decimals", raw: 200000, decimals: 6, expected: "0.2"},
		{name: "four decimals", raw: 123456789, decimals: 4, expected: "12345.6789"},
		{name: "zero decimals passes through", raw: 42, decimals: 0, expected: "42"},
		{name: "zero raw", raw: 0, decimals: 6, expected: "0"},
		{name: "sub-unit dust", raw: 1, decimals: 8, expected: "0.00000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromRaw(tt.raw, tt.decimals)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

// TestFromRaw_ExactFloat verifies the float view is exact for display-scale amounts.
func TestFromRaw_ExactFloat(t *testing.T) {
	assert.Equal(t, 0.2, FromRaw(200000, 6).InexactFloat64())
	assert.Equal(t, 12345.6789, FromRaw(123456789, 4).InexactFloat64())
}

// TestFromRawString verifies conversion of decimal-string raw amounts.
func TestFromRawString(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals int32
		expected string
		wantErr  bool
	}{
		{name: "stake amount", raw: "200000", decimals: 6, expected: "0.2"},
		{name: "empty counts as zero", raw: "", decimals: 6, expected: "0"},
		{name: "whitespace counts as zero", raw: "   ", decimals: 6, expected: "0"},
		{name: "zero decimals", raw: "200000", decimals: 0, expected: "200000"},
		{name: "garbage", raw: "not-a-number", decimals: 6, wantErr: true},
		{name: "negative rejected", raw: "-5", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromRawString(tt.raw, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

// TestFromRawString_WidePrecision verifies amounts wider than float64 stay exact.
func TestFromRawString_WidePrecision(t *testing.T) {
	got, err := FromRawString("123456789012345678901", 6)
	require.NoError(t, err)
	assert.Equal(t, "123456789012345.678901", got.String())
	assert.True(t, got.Equal(decimal.RequireFromString("123456789012345.678901")))
}
