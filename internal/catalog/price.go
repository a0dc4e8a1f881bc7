// File: internal/catalog/price.go
package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// priceRe recognizes a Rand currency amount anywhere in a string:
// "R 10,499", "R10,499", "R10499", "From R 2,749", optional cents. The
// currency marker is a case-sensitive R that must not follow a letter, so
// the trailing "r" of brand names ("Acer 24", "Razer 27") never reads as a
// currency marker.
var priceRe = regexp.MustCompile(`(?:^|[^A-Za-z])(R\s*((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?))`)

var pricePrinter = message.NewPrinter(language.English)

// FindPriceText returns the first currency-amount substring found in the
// text, e.g. "R 10,499" out of a whole listing card. ok is false when the
// text carries no recognizable amount.
func FindPriceText(text string) (string, bool) {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParsePrice converts locale-formatted currency text into a comparable
// numeric value. It is a partial function: ok is false when the input
// contains no recognizable currency-amount pattern. A legitimate zero price
// ("R 0") returns (0, true), which is distinguishable from failure; garbage
// is never silently coerced to zero.
func ParsePrice(text string) (float64, bool) {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(m[2], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsPriceWithinLimit reports whether the text parses to a price that is at
// most ceiling. An unparsable price conservatively does not satisfy the
// limit.
func IsPriceWithinLimit(text string, ceiling float64) bool {
	v, ok := ParsePrice(text)
	return ok && v <= ceiling
}

// FormatPrice renders a numeric value with thousands grouping and the Rand
// prefix, for diagnostic output. It is not required to round-trip exactly
// through ParsePrice.
func FormatPrice(v float64) string {
	if v == float64(int64(v)) {
		return pricePrinter.Sprintf("R %v", number.Decimal(int64(v)))
	}
	return pricePrinter.Sprintf("R %v", number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
