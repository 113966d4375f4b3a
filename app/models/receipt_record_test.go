package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1234", 1234},
		{"1,234", 1234},
		{"¥1,234", 1234},
		{"￥500", 500},
		{" 980 ", 980},
		{"0", 0},
	}

	for _, tt := range tests {
		got, err := NormalizeAmount(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestNormalizeAmountRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "12.50", "-100", "¥"} {
		_, err := NormalizeAmount(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNormalizeAmountIdempotent(t *testing.T) {
	first, err := NormalizeAmount("¥1,234")
	require.NoError(t, err)

	second, err := NormalizeAmount("1234")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStringSliceRoundTrip(t *testing.T) {
	s := StringSlice{"a", "b"}
	value, err := s.Value()
	require.NoError(t, err)

	var decoded StringSlice
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, s, decoded)
}

func TestStringSliceEmptyAndNull(t *testing.T) {
	var empty StringSlice
	value, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	var decoded StringSlice
	require.NoError(t, decoded.Scan(nil))
	assert.Empty(t, decoded)
}
