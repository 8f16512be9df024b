package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDescribe verifies the closed-set failure normalization.
func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		cause    any
		expected string
	}{
		{name: "structured error", cause: errors.New("rpc unreachable"), expected: "rpc unreachable"},
		{
			name:     "wrapped error keeps the chain",
			cause:    fmt.Errorf("claimable rewards: %w", errors.New("http 502")),
			expected: "claimable rewards: http 502",
		},
		{name: "plain string", cause: "index out of range", expected: "index out of range"},
		{name: "nil", cause: nil, expected: ""},
		{
			name:     "opaque value serialized",
			cause:    map[string]int{"code": 502},
			expected: `{"code":502}`,
		},
		{name: "opaque number serialized", cause: 42, expected: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Describe(tt.cause))
		})
	}
}

// TestDescribe_SerializationFallback verifies unserializable values fall back
// to a plain string conversion.
func TestDescribe_SerializationFallback(t *testing.T) {
	// NaN has no JSON encoding, so serialization fails and Sprint takes over.
	assert.Equal(t, "NaN", Describe(math.NaN()))
}

// TestNewError verifies failure notifications carry the fixed shape.
func TestNewError(t *testing.T) {
	n := NewError(errors.New("boom"))
	assert.Equal(t, VariantDestructive, n.Variant)
	assert.Equal(t, "Error", n.Title)
	assert.Equal(t, "boom", n.Description)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.At.IsZero())
}

// TestCaptureSink verifies capture and reset behavior.
func TestCaptureSink(t *testing.T) {
	ctx := context.Background()
	s := &CaptureSink{}
	s.Notify(ctx, NewInfo("Connected", "wallet attached"))
	s.Notify(ctx, NewError("boom"))

	notices := s.Notices()
	assert.Len(t, notices, 2)
	assert.Equal(t, VariantInfo, notices[0].Variant)
	assert.Equal(t, VariantDestructive, notices[1].Variant)

	s.Reset()
	assert.Empty(t, s.Notices())
}
