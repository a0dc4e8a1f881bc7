// File: internal/browser/browsertest/fake.go
// Description: In-memory implementations of the browser Page and Element
// contracts for the synthetic test harness. Queries resolve against a map
// of selector -> elements; everything else is recorded so tests can assert
// on decisions without a real browser.
package browsertest

import (
	"context"
	"strings"
	"time"

	"github.com/rvanheerden/cartprobe/internal/browser"
)

// FakeElement is a scripted Element.
type FakeElement struct {
	TextContent string
	TextErr     error
	// IsVisible defaults through NewElement to true.
	IsVisible  bool
	VisibleErr error

	// FailNormalClick/FailForcedClick/FailScriptClick make the matching
	// escalation level fail, for exercising click escalation.
	FailNormalClick bool
	FailForcedClick bool
	FailScriptClick bool

	// Clicks records the options of every successful click.
	Clicks []browser.ClickOptions

	// Children maps a descriptor query to scoped matches.
	Children map[string][]*FakeElement
	// ChildErrs maps a descriptor query to a forced error.
	ChildErrs map[string]error
}

// NewElement builds a visible element with the given text.
func NewElement(text string) *FakeElement {
	return &FakeElement{TextContent: text, IsVisible: true}
}

// WithChild registers scoped matches for a query and returns the element
// for chaining.
func (e *FakeElement) WithChild(query string, children ...*FakeElement) *FakeElement {
	if e.Children == nil {
		e.Children = make(map[string][]*FakeElement)
	}
	e.Children[query] = children
	return e
}

func (e *FakeElement) Text(ctx context.Context, timeout time.Duration) (string, error) {
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.TextContent, nil
}

func (e *FakeElement) Visible(ctx context.Context, timeout time.Duration) (bool, error) {
	if e.VisibleErr != nil {
		return false, e.VisibleErr
	}
	return e.IsVisible, nil
}

func (e *FakeElement) Click(ctx context.Context, opts browser.ClickOptions) error {
	switch {
	case opts.ViaScript:
		if e.FailScriptClick {
			return errContext("script click failed")
		}
	case opts.Force:
		if e.FailForcedClick {
			return errContext("forced click failed")
		}
	default:
		if e.FailNormalClick {
			return errContext("click intercepted by overlay")
		}
	}
	e.Clicks = append(e.Clicks, opts)
	return nil
}

func (e *FakeElement) FindAll(ctx context.Context, d browser.Descriptor) ([]browser.Element, error) {
	if err := e.ChildErrs[d.Query]; err != nil {
		return nil, err
	}
	return asElements(e.Children[d.Query]), nil
}

// Clicked reports whether the element received at least one successful
// click.
func (e *FakeElement) Clicked() bool {
	return len(e.Clicks) > 0
}

// FakePage is a scripted Page.
type FakePage struct {
	// Elements maps a descriptor query to page-level matches.
	Elements map[string][]*FakeElement
	// Errs maps a descriptor query to a forced error.
	Errs map[string]error

	// NavigateErrs maps a URL to a forced navigation error.
	NavigateErrs map[string]error
	// NavigateErrsOnce maps a URL to an error returned for the first
	// navigation to it only; later navigations succeed.
	NavigateErrsOnce map[string]error

	Navigated []string
	Filled    map[string]string
	Pressed   []string
	Slept     []time.Duration
}

// NewPage builds an empty fake page.
func NewPage() *FakePage {
	return &FakePage{
		Elements: make(map[string][]*FakeElement),
		Filled:   make(map[string]string),
	}
}

// Register sets the page-level matches for a query.
func (p *FakePage) Register(query string, elements ...*FakeElement) *FakePage {
	p.Elements[query] = elements
	return p
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	if err := p.NavigateErrsOnce[url]; err != nil {
		delete(p.NavigateErrsOnce, url)
		return err
	}
	if err := p.NavigateErrs[url]; err != nil {
		return err
	}
	p.Navigated = append(p.Navigated, url)
	return nil
}

func (p *FakePage) FindAll(ctx context.Context, d browser.Descriptor) ([]browser.Element, error) {
	if err := p.Errs[d.Query]; err != nil {
		return nil, err
	}
	return asElements(p.Elements[d.Query]), nil
}

func (p *FakePage) Fill(ctx context.Context, selector, text string) error {
	p.Filled[selector] = text
	return nil
}

func (p *FakePage) Press(ctx context.Context, selector, key string) error {
	p.Pressed = append(p.Pressed, selector+":"+key)
	return nil
}

func (p *FakePage) Sleep(ctx context.Context, d time.Duration) error {
	p.Slept = append(p.Slept, d)
	return nil
}

// Listing builds a fake listing container in the storefront's primary
// markup shape: title and price fields under data-ref selectors, with the
// whole card text combining every line.
func Listing(name, price string, extraLines ...string) *FakeElement {
	lines := append([]string{name, price}, extraLines...)
	card := NewElement(strings.Join(lines, "\n"))
	card.WithChild(`[data-ref="product-title"]`, NewElement(name))
	card.WithChild(`[data-ref="price"]`, NewElement(price))
	return card
}

func asElements(fakes []*FakeElement) []browser.Element {
	out := make([]browser.Element, 0, len(fakes))
	for _, f := range fakes {
		out = append(out, f)
	}
	return out
}

type errContext string

func (e errContext) Error() string { return string(e) }
