// File: internal/browser/session_test.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/config"
)

// requireChrome skips the test when no Chrome-family binary is installed.
func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary available")
}

const fixtureHTML = `<!DOCTYPE html>
<html><body>
<input type="search" id="q">
<div data-ref="product-card">
  <a data-ref="product-title" href="/p/1">Samsung 65" DU7010 4K UHD</a>
  <span data-ref="price">R 10,499</span>
  <button data-ref="add-to-cart-button">Add to Cart</button>
</div>
<div data-ref="product-card">
  <a data-ref="product-title" href="/p/2">LG 65" OLED Smart Television</a>
  <span data-ref="price">R 20,000</span>
</div>
</body></html>`

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixtureHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newLiveSession(t *testing.T) *Session {
	t.Helper()
	requireChrome(t)

	s, err := NewSession(context.Background(),
		config.BrowserConfig{Headless: true, WindowWidth: 1280, WindowHeight: 800},
		config.NetworkConfig{
			NavigationTimeout:    30 * time.Second,
			OperationTimeout:     10 * time.Second,
			NavigationsPerSecond: 10,
		},
		zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSessionQueryAndText(t *testing.T) {
	srv := newFixtureServer(t)
	s := newLiveSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL))

	cards, err := s.FindAll(ctx, CSS(`div[data-ref="product-card"]`, "product card"))
	require.NoError(t, err)
	require.Len(t, cards, 2)

	titles, err := cards[0].FindAll(ctx, CSS(`[data-ref="product-title"]`, "title"))
	require.NoError(t, err)
	require.Len(t, titles, 1)

	text, err := titles[0].Text(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, `Samsung 65" DU7010 4K UHD`, text)

	visible, err := cards[0].Visible(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestSessionZeroMatchesIsNotAnError(t *testing.T) {
	srv := newFixtureServer(t)
	s := newLiveSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL))

	matches, err := s.FindAll(ctx, CSS(`div.does-not-exist`, "missing"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSessionFillAndClick(t *testing.T) {
	srv := newFixtureServer(t)
	s := newLiveSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL))
	require.NoError(t, s.Fill(ctx, `input[type="search"]`, "smart tv"))

	buttons, err := s.FindAll(ctx, CSS(`button[data-ref="add-to-cart-button"]`, "cart button"))
	require.NoError(t, err)
	require.Len(t, buttons, 1)
	require.NoError(t, buttons[0].Click(ctx, ClickOptions{}))
	require.NoError(t, buttons[0].Click(ctx, ClickOptions{ViaScript: true}))
}

func TestVisibilityOutcome(t *testing.T) {
	visible, err := visibilityOutcome(nil)
	require.NoError(t, err)
	assert.True(t, visible)

	// An expired wait deadline is a "not visible" answer, not a failure.
	visible, err = visibilityOutcome(context.DeadlineExceeded)
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = visibilityOutcome(fmt.Errorf("waiting: %w", context.DeadlineExceeded))
	require.NoError(t, err)
	assert.False(t, visible)

	// Anything else, e.g. a malformed query or a detached node, must
	// surface as an error instead of reading as "not visible".
	queryErr := errors.New("invalid xpath expression")
	_, err = visibilityOutcome(queryErr)
	assert.ErrorIs(t, err, queryErr)
}

func TestTrimRelativeXPath(t *testing.T) {
	assert.Equal(t, `//button`, trimRelativeXPath(`.//button`))
	assert.Equal(t, `//div[1]`, trimRelativeXPath(`//div[1]`))
	assert.Equal(t, ``, trimRelativeXPath(``))
}

func TestDescriptorConstructors(t *testing.T) {
	css := CSS(`.price`, "price class")
	assert.Equal(t, ByCSS, css.Kind)
	assert.Equal(t, ".price", css.Query)
	assert.Equal(t, "price class", css.Label)

	xp := XPath(`//div`, "generic div")
	assert.Equal(t, ByXPath, xp.Kind)
}
