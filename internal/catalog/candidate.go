// File: internal/catalog/candidate.go
// Description: The transient data model for one product listing under
// evaluation, and the selection criteria scenarios use to pick one. A
// Candidate lives for a single scan iteration and is discarded once a
// match/no-match decision is made; nothing here is persisted.
package catalog

import "fmt"

// Candidate is one product listing extracted from a results page.
type Candidate struct {
	// RawText is the full text content of the listing container.
	RawText string
	// Name is the extracted product name. Non-empty when extraction
	// succeeded.
	Name string
	// PriceText is the displayed price as found on the page, e.g. "R 10,499".
	PriceText string
}

// Price parses the candidate's displayed price. ok is false when the
// display text carries no recognizable amount.
func (c Candidate) Price() (float64, bool) {
	return ParsePrice(c.PriceText)
}

// RefreshRate extracts the first refresh rate mentioned anywhere in the
// listing text.
func (c Candidate) RefreshRate() (int, bool) {
	return ExtractRefreshRate(c.combinedText())
}

// combinedText joins name and raw text so classification sees attributes
// that appear only in one of them.
func (c Candidate) combinedText() string {
	if c.RawText == "" {
		return c.Name
	}
	return c.Name + "\n" + c.RawText
}

// Criteria is an immutable predicate over a Candidate, supplied per
// scenario.
type Criteria struct {
	// Description names the criteria in diagnostics, e.g.
	// "Samsung tv under R 15,000".
	Description string
	// Matches decides whether a candidate qualifies.
	Matches func(Candidate) bool
}

// BrandCategoryUnderPrice builds criteria matching listings of the given
// brand and category priced at or under the ceiling. A candidate whose
// price cannot be parsed never matches.
func BrandCategoryUnderPrice(brand string, categoryKeywords []string, ceiling float64) Criteria {
	return Criteria{
		Description: fmt.Sprintf("%s product matching %v under %s", brand, categoryKeywords, FormatPrice(ceiling)),
		Matches: func(c Candidate) bool {
			text := c.combinedText()
			return MatchesBrand(text, brand) &&
				MatchesCategory(text, categoryKeywords) &&
				IsPriceWithinLimit(c.PriceText, ceiling)
		},
	}
}

// CategoryMinRefreshRate builds criteria matching listings of the given
// category whose first advertised refresh rate is at least minHz.
func CategoryMinRefreshRate(categoryKeywords []string, minHz int) Criteria {
	return Criteria{
		Description: fmt.Sprintf("product matching %v with refresh rate >= %dHz", categoryKeywords, minHz),
		Matches: func(c Candidate) bool {
			text := c.combinedText()
			return MatchesCategory(text, categoryKeywords) &&
				MeetsRefreshRateRequirement(text, minHz)
		},
	}
}
