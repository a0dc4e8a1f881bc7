// File: internal/browser/page.go
// Description: The narrow contract the rest of the suite holds against the
// browser. The storefront page is an external collaborator that this system
// does not control: any query may legitimately return nothing, and any
// interaction may fail. Components depend only on these interfaces; the
// chromedp-backed Session is one implementation, and tests substitute an
// in-memory fake.
package browser

import (
	"context"
	"time"
)

// QueryKind selects how a Descriptor's query string is interpreted.
type QueryKind int

const (
	// ByCSS interprets the query as a CSS selector.
	ByCSS QueryKind = iota
	// ByXPath interprets the query as an XPath expression. Scoped XPath
	// queries are relative expressions beginning with ".//".
	ByXPath
)

// Descriptor is one way of finding elements. Descriptors are pure
// descriptions: stateless, and re-evaluated fresh against each page state.
type Descriptor struct {
	Query string
	Kind  QueryKind
	// Label names the descriptor in diagnostics, e.g. "data-ref product card".
	Label string
}

// CSS builds a CSS descriptor.
func CSS(query, label string) Descriptor {
	return Descriptor{Query: query, Kind: ByCSS, Label: label}
}

// XPath builds an XPath descriptor.
func XPath(query, label string) Descriptor {
	return Descriptor{Query: query, Kind: ByXPath, Label: label}
}

// ClickOptions escalate interaction force: a normal click, a forced click
// that scrolls the target into view and skips actionability niceties, and
// a script-level click dispatched from JavaScript.
type ClickOptions struct {
	Force     bool
	ViaScript bool
}

// Element is a handle to one matched DOM construct.
type Element interface {
	// Text reads the element's text content, bounded by timeout.
	Text(ctx context.Context, timeout time.Duration) (string, error)
	// Visible reports whether the element becomes visible within timeout.
	// Not-visible-in-time is a false result, not an error.
	Visible(ctx context.Context, timeout time.Duration) (bool, error)
	// Click activates the element with the requested force level.
	Click(ctx context.Context, opts ClickOptions) error
	// FindAll queries for descendants of this element. An empty result is
	// not an error.
	FindAll(ctx context.Context, d Descriptor) ([]Element, error)
}

// Page is the per-session view of the remote page.
type Page interface {
	// Navigate loads the URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// FindAll queries the whole document. An empty result is not an error.
	FindAll(ctx context.Context, d Descriptor) ([]Element, error)
	// Fill clears the input matching selector and types text into it.
	Fill(ctx context.Context, selector, text string) error
	// Press sends a key (e.g. "Enter") to the element matching selector.
	Press(ctx context.Context, selector, key string) error
	// Sleep waits the given duration, honoring context cancellation. Used
	// to let asynchronous page content settle.
	Sleep(ctx context.Context, d time.Duration) error
}
