// File: internal/scanner/scanner_test.go
package scanner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/browser/browsertest"
	"github.com/rvanheerden/cartprobe/internal/catalog"
	"github.com/rvanheerden/cartprobe/internal/locator"
)

const (
	listingQuery = `div[data-ref="product-card"]`
	testTimeout  = 500 * time.Millisecond
)

func newTestScanner(page *browsertest.FakePage, maxListings int) *Scanner {
	logger := zap.NewNop()
	return New(page, locator.New(testTimeout, logger), maxListings, 0, testTimeout, logger)
}

func tvUnderPrice(ceiling float64) catalog.Criteria {
	return catalog.BrandCategoryUnderPrice("Samsung", []string{"tv", "television"}, ceiling)
}

func TestFindFirstMatchReturnsFirstQualifying(t *testing.T) {
	page := browsertest.NewPage()
	page.Register(listingQuery,
		browsertest.Listing("LG 65\" OLED Smart Television", "R 20,000"),
		browsertest.Listing("Samsung 65\" DU7010 4K UHD Television", "R 10,499"),
		browsertest.Listing("Samsung 55\" Crystal UHD Television", "R 8,999"),
	)

	candidate, err := newTestScanner(page, 10).FindFirstMatch(context.Background(), tvUnderPrice(15000))
	require.NoError(t, err)
	require.NotNil(t, candidate)
	// Both Samsung sets qualify; display order decides, not price.
	assert.Equal(t, "Samsung 65\" DU7010 4K UHD Television", candidate.Name)
	assert.Equal(t, "R 10,499", candidate.PriceText)
}

func TestFindFirstMatchSkipsBrokenListing(t *testing.T) {
	broken := browsertest.NewElement("") // no name, no price, nothing extractable
	page := browsertest.NewPage()
	page.Register(listingQuery,
		broken,
		browsertest.Listing("Samsung 65\" DU7010 4K UHD Television", "R 10,499"),
	)

	candidate, err := newTestScanner(page, 10).FindFirstMatch(context.Background(), tvUnderPrice(15000))
	require.NoError(t, err, "one broken listing must not abort the scan")
	require.NotNil(t, candidate)
	assert.Equal(t, "Samsung 65\" DU7010 4K UHD Television", candidate.Name)
}

func TestFindFirstMatchNoQualifyingListing(t *testing.T) {
	page := browsertest.NewPage()
	page.Register(listingQuery,
		browsertest.Listing("LG 65\" OLED Smart Television", "R 20,000"),
		browsertest.Listing("Samsung 85\" Neo QLED Television", "R 49,999"),
	)

	candidate, err := newTestScanner(page, 10).FindFirstMatch(context.Background(), tvUnderPrice(15000))
	require.NoError(t, err, "an empty result is an outcome, not an error")
	assert.Nil(t, candidate)
}

func TestFindFirstMatchUnparsablePriceNeverQualifies(t *testing.T) {
	page := browsertest.NewPage()
	page.Register(listingQuery,
		browsertest.Listing("Samsung 65\" DU7010 4K UHD Television", "Price on request"),
	)

	candidate, err := newTestScanner(page, 10).FindFirstMatch(context.Background(), tvUnderPrice(15000))
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestFindFirstMatchNoListings(t *testing.T) {
	_, err := newTestScanner(browsertest.NewPage(), 10).FindFirstMatch(context.Background(), tvUnderPrice(15000))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoListings)
}

func TestFindFirstMatchHonorsListingCap(t *testing.T) {
	page := browsertest.NewPage()
	listings := make([]*browsertest.FakeElement, 0, 12)
	for i := 0; i < 11; i++ {
		listings = append(listings, browsertest.Listing(
			fmt.Sprintf("LG 65\" OLED Smart Television model %d", i), "R 20,000"))
	}
	// The only qualifying listing sits beyond the cap and must be ignored.
	listings = append(listings, browsertest.Listing("Samsung 65\" DU7010 4K UHD Television", "R 10,499"))
	page.Register(listingQuery, listings...)

	candidate, err := newTestScanner(page, 10).FindFirstMatch(context.Background(), tvUnderPrice(15000))
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestFindFirstMatchRefreshRateCriteria(t *testing.T) {
	page := browsertest.NewPage()
	page.Register(listingQuery,
		browsertest.Listing("Dell 27\" Office Monitor FHD 75Hz", "R 2,999"),
		browsertest.Listing("MSI PERFECTEDGE PRO 25\" 120Hz FHD Monitor", "R 4,499"),
	)

	criteria := catalog.CategoryMinRefreshRate([]string{"monitor"}, 120)
	candidate, err := newTestScanner(page, 10).FindFirstMatch(context.Background(), criteria)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "MSI PERFECTEDGE PRO 25\" 120Hz FHD Monitor", candidate.Name)

	hz, ok := candidate.RefreshRate()
	require.True(t, ok)
	assert.Equal(t, 120, hz)
}
