// File: internal/scenario/runner_test.go
package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/browser/browsertest"
	"github.com/rvanheerden/cartprobe/internal/config"
)

const listingQuery = `div[data-ref="product-card"]`

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Site.BaseURL = "https://store.example"
	cfg.Network.OperationTimeout = 500 * time.Millisecond
	cfg.Network.ResultsSettleWait = 0
	return cfg
}

func tvScenario() config.ScenarioConfig {
	return config.ScenarioConfig{
		Name:     "samsung-tv-under-15k",
		Search:   "65 inch smart tv",
		Brand:    "Samsung",
		Category: "tv",
		MaxPrice: 15000,
		Target:   "cart",
	}
}

// storefrontPage builds a fake page holding two result listings with
// add-to-cart controls, where only the Samsung set fits under the ceiling.
func storefrontPage() (*browsertest.FakePage, *browsertest.FakeElement) {
	control := browsertest.NewElement("Add to Cart")
	samsung := browsertest.Listing("Samsung 65\" DU7010 4K UHD Television", "R 10,499")
	samsung.WithChild(`button[data-ref="add-to-cart-button"]`, control)
	lg := browsertest.Listing("LG 65\" OLED Smart Television", "R 20,000")

	page := browsertest.NewPage()
	page.Register(listingQuery, lg, samsung)
	return page, control
}

func TestRunHappyPath(t *testing.T) {
	page, control := storefrontPage()
	runner := NewRunner(page, testConfig(), zap.NewNop())

	result, err := runner.Run(context.Background(), tvScenario())
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, result.Status)

	require.NotNil(t, result.Selected)
	assert.Equal(t, "Samsung 65\" DU7010 4K UHD Television", result.Selected.Name)
	price, ok := result.Selected.Price()
	require.True(t, ok)
	assert.Equal(t, 10499.0, price)

	assert.True(t, control.Clicked())
	assert.Equal(t,
		[]string{"https://store.example", "https://store.example/cart"},
		page.Navigated)
	assert.Equal(t, "65 inch smart tv", page.Filled[`input[type="search"]`])

	names := make([]string, 0, len(result.Steps))
	for _, s := range result.Steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"navigate to storefront",
		"dismiss overlay",
		"search",
		"scan results",
		"add to cart",
		"open cart view",
		"verify presence",
	}, names)
}

func TestRunFailsWhenNothingQualifies(t *testing.T) {
	page := browsertest.NewPage()
	page.Register(listingQuery,
		browsertest.Listing("LG 65\" OLED Smart Television", "R 20,000"),
	)
	runner := NewRunner(page, testConfig(), zap.NewNop())

	result, err := runner.Run(context.Background(), tvScenario())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Err, "scan results")
	assert.Nil(t, result.Selected)
	// Earlier steps still appear in the transcript.
	require.NotEmpty(t, result.Steps)
	assert.Equal(t, "navigate to storefront", result.Steps[0].Name)
	assert.Equal(t, "scan results", result.Steps[len(result.Steps)-1].Name)
}

func TestRunWishlistTarget(t *testing.T) {
	control := browsertest.NewElement("Add to Wish List")
	card := browsertest.Listing("Samsung 65\" DU7010 4K UHD Television", "R 10,499")
	card.WithChild(`button[data-ref="add-to-wishlist-button"]`, control)
	page := browsertest.NewPage()
	page.Register(listingQuery, card)

	sc := tvScenario()
	sc.Target = "wishlist"
	runner := NewRunner(page, testConfig(), zap.NewNop())

	result, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, result.Status)
	assert.True(t, control.Clicked())
	assert.Contains(t, page.Navigated, "https://store.example/wishlist")
}

func TestRunOverlayDismissalIsBestEffort(t *testing.T) {
	page, _ := storefrontPage()
	overlay := browsertest.NewElement("×")
	overlay.FailNormalClick = true // dismissal fails, scenario must not
	page.Register(`[data-ref="modal-close-button"]`, overlay)

	runner := NewRunner(page, testConfig(), zap.NewNop())
	result, err := runner.Run(context.Background(), tvScenario())
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, result.Status)
}

func TestRunTargetViewNavigationRetries(t *testing.T) {
	// A transient failure loading the cart view is retried like the other
	// page loads rather than failing the scenario outright.
	page, _ := storefrontPage()
	page.NavigateErrsOnce = map[string]error{
		"https://store.example/cart": errors.New("connection reset by peer"),
	}

	runner := NewRunner(page, testConfig(), zap.NewNop())
	result, err := runner.Run(context.Background(), tvScenario())
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, result.Status)
	assert.Contains(t, page.Navigated, "https://store.example/cart")
}

func TestRunRefreshRateScenario(t *testing.T) {
	control := browsertest.NewElement("Add to Cart")
	card := browsertest.Listing("MSI PERFECTEDGE PRO 25\" 120Hz FHD Monitor", "R 4,499")
	card.WithChild(`button[data-ref="add-to-cart-button"]`, control)
	page := browsertest.NewPage()
	page.Register(listingQuery,
		browsertest.Listing("Dell 27\" Office Monitor FHD 75Hz", "R 2,999"),
		card,
	)

	sc := config.ScenarioConfig{
		Name:       "fast-monitor",
		Search:     "gaming monitor",
		Category:   "monitor",
		MinRefresh: 120,
		Target:     "cart",
	}
	runner := NewRunner(page, testConfig(), zap.NewNop())

	result, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, result.Status)
	require.NotNil(t, result.Selected)
	assert.Equal(t, "MSI PERFECTEDGE PRO 25\" 120Hz FHD Monitor", result.Selected.Name)
}
