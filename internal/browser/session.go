// File: internal/browser/session.go
// Description: The chromedp-backed implementation of the Page contract.
// Each scenario owns one Session: a private browser context with no state
// shared across sessions. Timeouts attach per individual operation, never
// to the whole scenario, so a single hung CDP call fails fast. Navigation
// and searches are paced by a politeness rate limiter so parallel sessions
// do not hammer the storefront.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rvanheerden/cartprobe/internal/config"
)

// Session drives one isolated browser tab.
type Session struct {
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	// tabCtx is the chromedp context; it owns the browser lifecycle and
	// must be the ancestor of every chromedp.Run call.
	tabCtx  context.Context
	net     config.NetworkConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewSession launches a browser tab configured per cfg. Close must be
// called to release the browser.
func NewSession(ctx context.Context, browserCfg config.BrowserConfig, netCfg config.NetworkConfig, logger *zap.Logger) (*Session, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", browserCfg.Headless),
		chromedp.WindowSize(browserCfg.WindowWidth, browserCfg.WindowHeight),
	)
	if browserCfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(browserCfg.UserAgent))
	}
	if browserCfg.DisableCache {
		opts = append(opts, chromedp.Flag("disable-application-cache", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	navPerSec := netCfg.NavigationsPerSecond
	if navPerSec <= 0 {
		navPerSec = 1.0
	}

	s := &Session{
		allocCancel: allocCancel,
		tabCancel:   tabCancel,
		tabCtx:      tabCtx,
		net:         netCfg,
		limiter:     rate.NewLimiter(rate.Limit(navPerSec), 1),
		logger:      logger.Named("browser"),
	}

	// Start the browser process now so a broken environment surfaces as a
	// construction error rather than a mid-scenario one.
	startCtx, cancel := context.WithTimeout(tabCtx, netCfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return s, nil
}

// Close tears down the tab and the browser process.
func (s *Session) Close() {
	if s.tabCancel != nil {
		s.tabCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// run executes chromedp actions on the session tab under an operation
// deadline derived from ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = s.net.OperationTimeout
	}
	opCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(opCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Navigate loads the URL, then waits the configured post-load period for
// asynchronous content to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	s.logger.Info("Navigating.", zap.String("url", url))

	navTimeout := s.net.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 45 * time.Second
	}
	if err := s.run(ctx, navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	if wait := s.net.PostLoadWait; wait > 0 {
		if err := s.Sleep(ctx, wait); err != nil {
			return err
		}
	}
	s.logger.Debug("Navigation complete.", zap.String("url", url))
	return nil
}

// FindAll resolves a descriptor to zero or more element handles. Zero
// matches is a normal outcome and returns an empty slice.
func (s *Session) FindAll(ctx context.Context, d Descriptor) ([]Element, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, 0, chromedp.Nodes(d.Query, &nodes, queryOption(d.Kind), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %q (%s) failed: %w", d.Query, d.Label, err)
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &element{session: s, node: n, xpath: n.FullXPath()})
	}
	s.logger.Debug("Query resolved.",
		zap.String("descriptor", d.Label),
		zap.String("query", d.Query),
		zap.Int("matches", len(elements)))
	return elements, nil
}

// Fill clears the input matching selector and types text into it.
func (s *Session) Fill(ctx context.Context, selector, text string) error {
	err := s.run(ctx, 0,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill failed for selector %q: %w", selector, err)
	}
	return nil
}

// Press sends a key to the element matching selector. Key names follow the
// usual DOM names; anything unrecognized is sent as literal text.
func (s *Session) Press(ctx context.Context, selector, key string) error {
	keys := key
	switch key {
	case "Enter":
		keys = kb.Enter
	case "Tab":
		keys = kb.Tab
	case "Escape":
		keys = kb.Escape
	}
	if err := s.run(ctx, 0, chromedp.SendKeys(selector, keys, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("press %q failed for selector %q: %w", key, selector, err)
	}
	return nil
}

// Sleep waits for d, honoring cancellation of both the caller's context
// and the session.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.tabCtx.Done():
		return s.tabCtx.Err()
	}
}

func queryOption(kind QueryKind) chromedp.QueryOption {
	if kind == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

// element addresses a matched node by its full XPath, which stays valid as
// long as the page state it was resolved against does.
type element struct {
	session *Session
	node    *cdp.Node
	xpath   string
}

// Text reads the element's text content. When the direct read fails, it
// falls back to fetching the node's outer HTML and extracting the text
// content from the markup.
func (e *element) Text(ctx context.Context, timeout time.Duration) (string, error) {
	var text string
	err := e.session.run(ctx, timeout, chromedp.Text(e.xpath, &text, chromedp.BySearch))
	if err == nil {
		return text, nil
	}

	var outer string
	htmlErr := e.session.run(ctx, timeout, chromedp.OuterHTML(e.xpath, &outer, chromedp.BySearch))
	if htmlErr != nil {
		return "", fmt.Errorf("text read failed for %s: %w", e.xpath, err)
	}
	text, parseErr := TextFromHTML(outer)
	if parseErr != nil {
		return "", fmt.Errorf("text read failed for %s: %w", e.xpath, err)
	}
	e.session.logger.Debug("Recovered element text from outer HTML.", zap.String("xpath", e.xpath))
	return text, nil
}

// Visible reports whether the element becomes visible within timeout.
func (e *element) Visible(ctx context.Context, timeout time.Duration) (bool, error) {
	err := e.session.run(ctx, timeout, chromedp.WaitVisible(e.xpath, chromedp.BySearch))
	if err != nil && ctx.Err() != nil {
		return false, ctx.Err()
	}
	visible, err := visibilityOutcome(err)
	if err != nil {
		return false, fmt.Errorf("visibility wait failed for %s: %w", e.xpath, err)
	}
	return visible, nil
}

// visibilityOutcome interprets a WaitVisible result. A deadline expiring
// inside the wait means "not visible in time", which is an answer, not a
// failure; any other error (malformed query, detached node) is a real
// failure and must surface.
func visibilityOutcome(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false, nil
	}
	return false, err
}

// Click activates the element, escalating per opts.
func (e *element) Click(ctx context.Context, opts ClickOptions) error {
	switch {
	case opts.ViaScript:
		script := fmt.Sprintf(`(function() {
			const r = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
			if (!r.singleNodeValue) { return false; }
			r.singleNodeValue.click();
			return true;
		})()`, e.xpath)
		var clicked bool
		if err := e.session.run(ctx, 0, chromedp.Evaluate(script, &clicked)); err != nil {
			return fmt.Errorf("script click failed for %s: %w", e.xpath, err)
		}
		if !clicked {
			return fmt.Errorf("script click found no node for %s", e.xpath)
		}
		return nil
	case opts.Force:
		err := e.session.run(ctx, 0,
			chromedp.ScrollIntoView(e.xpath, chromedp.BySearch),
			chromedp.Click(e.xpath, chromedp.BySearch, chromedp.NodeReady),
		)
		if err != nil {
			return fmt.Errorf("forced click failed for %s: %w", e.xpath, err)
		}
		return nil
	default:
		err := e.session.run(ctx, 0,
			chromedp.WaitVisible(e.xpath, chromedp.BySearch),
			chromedp.Click(e.xpath, chromedp.BySearch),
		)
		if err != nil {
			return fmt.Errorf("click failed for %s: %w", e.xpath, err)
		}
		return nil
	}
}

// FindAll queries for descendants of this element. CSS queries run against
// the node directly; XPath queries must be relative (".//...") and are
// resolved by prefixing this element's absolute path.
func (e *element) FindAll(ctx context.Context, d Descriptor) ([]Element, error) {
	var nodes []*cdp.Node
	var err error
	if d.Kind == ByXPath {
		query := e.xpath + trimRelativeXPath(d.Query)
		err = e.session.run(ctx, 0, chromedp.Nodes(query, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	} else {
		err = e.session.run(ctx, 0, chromedp.Nodes(d.Query, &nodes, chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	}
	if err != nil {
		return nil, fmt.Errorf("scoped query %q (%s) failed: %w", d.Query, d.Label, err)
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &element{session: e.session, node: n, xpath: n.FullXPath()})
	}
	return elements, nil
}

// trimRelativeXPath turns a relative ".//foo" expression into "//foo" so it
// can be appended to an absolute element path.
func trimRelativeXPath(q string) string {
	if len(q) > 0 && q[0] == '.' {
		return q[1:]
	}
	return q
}
