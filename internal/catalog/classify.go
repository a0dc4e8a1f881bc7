// File: internal/catalog/classify.go
package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// refreshRe matches a decimal number immediately followed, optionally
// separated by whitespace, by a case-insensitive "Hz" unit marker.
var refreshRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*hz`)

// ExtractRefreshRate returns the first refresh rate mentioned in the text.
// First occurrence wins even when a later value is larger; callers that
// want a best match must scan all candidates themselves rather than rely
// on this returning the maximum.
func ExtractRefreshRate(text string) (int, bool) {
	m := refreshRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// MeetsRefreshRateRequirement reports whether the text mentions a refresh
// rate of at least minHz. An absent rate does not satisfy the requirement.
func MeetsRefreshRateRequirement(text string, minHz int) bool {
	v, ok := ExtractRefreshRate(text)
	return ok && v >= minHz
}

// MatchesBrand is a case-insensitive substring test for a brand name.
func MatchesBrand(text, brand string) bool {
	if brand == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(brand))
}

// MatchesCategory reports whether any of the category keywords appears in
// the text, case-insensitively. Keyword sets come from configuration, not
// from hardcoded per-product lists.
func MatchesCategory(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
