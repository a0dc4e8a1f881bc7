// File: internal/catalog/price_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"spaced with separator", "R 10,499", 10499, true},
		{"no space with separator", "R10,499", 10499, true},
		{"bare digits", "R10499", 10499, true},
		{"from-prefixed range", "From R 2,749", 2749, true},
		{"with cents", "R 1,299.50", 1299.50, true},
		{"zero price", "R 0", 0, true},
		{"embedded in listing text", "Samsung 65\" DU7010\nR 10,499\nIn stock", 10499, true},
		{"no currency marker", "10499", 0, false},
		{"not a price", "not a price", 0, false},
		{"currency marker alone", "R", 0, false},
		{"lowercase marker is not currency", "r 1,299", 0, false},
		{"brand-suffix r before digits", "Acer 24\" FHD Monitor", 0, false},
		{"uppercase acronym R before digits", "PERFECTEDGE PRO 25\" FHD", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePriceZeroIsDistinguishable(t *testing.T) {
	// A legitimate zero price and an unparsable input both carry the value
	// zero; only the ok flag separates them.
	v, ok := ParsePrice("R 0")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, ok = ParsePrice("garbage")
	assert.False(t, ok)
}

func TestIsPriceWithinLimit(t *testing.T) {
	assert.True(t, IsPriceWithinLimit("R 15,000", 15000))
	assert.False(t, IsPriceWithinLimit("R 15,001", 15000))
	// Unparsable never satisfies the limit.
	assert.False(t, IsPriceWithinLimit("garbage", 15000))
	assert.False(t, IsPriceWithinLimit("", 15000))
	// An unpriced listing title must not satisfy the limit just because a
	// brand name ends in "r" ahead of a size.
	assert.False(t, IsPriceWithinLimit("Razer 27\" Gaming Monitor", 15000))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "R 10,499", FormatPrice(10499))
	assert.Equal(t, "R 0", FormatPrice(0))
	assert.Equal(t, "R 1,234,567", FormatPrice(1234567))
}

func TestFindPriceText(t *testing.T) {
	got, ok := FindPriceText("LG 65\" OLED\nFrom R 2,749\nFree delivery")
	require.True(t, ok)
	assert.Equal(t, "R 2,749", got)

	_, ok = FindPriceText("no amounts here")
	assert.False(t, ok)
}

func TestFindPriceTextSkipsBrandSuffix(t *testing.T) {
	// The "r 27" inside the brand+size text must not shadow the real amount
	// further along.
	got, ok := FindPriceText("Razer 27\" Gaming Monitor R 4,999")
	require.True(t, ok)
	assert.Equal(t, "R 4,999", got)

	_, ok = FindPriceText("Acer 24\" FHD Monitor")
	assert.False(t, ok)
}
