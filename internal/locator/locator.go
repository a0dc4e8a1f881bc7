// File: internal/locator/locator.go
// Description: Priority-ordered locator strategies for the storefront's
// logical targets. For each target we keep a list of descriptors from
// most-specific (a stable structural attribute) to least-specific (a
// generic role or text match); strategies are tried strictly in order and
// the first one returning at least one element wins. The ordering is a
// design decision, not an incidental detail: specific selectors reduce
// false positives, generic ones guarantee some result on unfamiliar
// markup, and trying them in this order balances precision against
// availability.
package locator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/browser"
)

// ErrNoMatch reports that every strategy for a target came up empty.
var ErrNoMatch = errors.New("no locator strategy matched")

// Target names a logical DOM construct the suite needs to find.
type Target string

const (
	TargetListing         Target = "listing container"
	TargetName            Target = "product name field"
	TargetPrice           Target = "product price field"
	TargetCartControl     Target = "add-to-cart control"
	TargetWishlistControl Target = "add-to-wishlist control"
	TargetOverlayDismiss  Target = "dismissible overlay control"
)

// Scope is anything that can be queried for elements: the whole page or a
// single container element.
type Scope interface {
	FindAll(ctx context.Context, d browser.Descriptor) ([]browser.Element, error)
}

// StrategySet is the ordered list of descriptors for one target.
type StrategySet struct {
	Target     Target
	Strategies []browser.Descriptor
}

// DefaultStrategySets returns the built-in strategy lists for a generic
// storefront layout.
func DefaultStrategySets() map[Target]StrategySet {
	return map[Target]StrategySet{
		TargetListing: {Target: TargetListing, Strategies: []browser.Descriptor{
			browser.CSS(`div[data-ref="product-card"]`, "data-ref product card"),
			browser.CSS(`article.product-card`, "product card article"),
			browser.CSS(`div.search-product`, "search product container"),
			browser.CSS(`[class*="product-item"]`, "product item class fragment"),
			browser.XPath(`//div[contains(@class,"product")]`, "generic product div"),
		}},
		TargetName: {Target: TargetName, Strategies: []browser.Descriptor{
			browser.CSS(`[data-ref="product-title"]`, "data-ref product title"),
			browser.CSS(`.product-title`, "product title class"),
			browser.CSS(`h3 a, h2 a`, "heading link"),
			browser.CSS(`a[href*="/p/"]`, "product detail link"),
		}},
		TargetPrice: {Target: TargetPrice, Strategies: []browser.Descriptor{
			browser.CSS(`[data-ref="price"]`, "data-ref price"),
			browser.CSS(`.price`, "price class"),
			browser.CSS(`span[class*="price"]`, "price class fragment"),
		}},
		TargetCartControl: {Target: TargetCartControl, Strategies: []browser.Descriptor{
			browser.CSS(`button[data-ref="add-to-cart-button"]`, "data-ref add-to-cart"),
			browser.CSS(`button.add-to-cart`, "add-to-cart class"),
			browser.XPath(`.//button[contains(., "Add to Cart")]`, "add-to-cart text"),
			browser.CSS(`form[action*="cart"] button[type="submit"]`, "cart form submit"),
		}},
		TargetWishlistControl: {Target: TargetWishlistControl, Strategies: []browser.Descriptor{
			browser.CSS(`button[data-ref="add-to-wishlist-button"]`, "data-ref add-to-wishlist"),
			browser.CSS(`button.add-to-wishlist`, "add-to-wishlist class"),
			browser.XPath(`.//button[contains(., "Add to Wish")]`, "add-to-wishlist text"),
			browser.CSS(`button[aria-label*="wishlist" i]`, "wishlist aria label"),
		}},
		TargetOverlayDismiss: {Target: TargetOverlayDismiss, Strategies: []browser.Descriptor{
			browser.CSS(`[data-ref="modal-close-button"]`, "data-ref modal close"),
			browser.CSS(`button[aria-label="Close"]`, "close aria label"),
			browser.CSS(`.modal button.close`, "modal close class"),
		}},
	}
}

// minNameLength is the threshold for the best-effort name fallback: the
// first line of container text longer than this is taken as the name,
// which skips short decorations like badges and bare prices.
const minNameLength = 10

// Locator evaluates strategy sets against page scopes.
type Locator struct {
	sets      map[Target]StrategySet
	opTimeout time.Duration
	logger    *zap.Logger
}

// Option customizes a Locator.
type Option func(*Locator)

// WithStrategySet replaces the strategy list for one target, e.g. from a
// site profile tuned to a specific storefront.
func WithStrategySet(set StrategySet) Option {
	return func(l *Locator) {
		l.sets[set.Target] = set
	}
}

// New builds a Locator with the default strategy sets, applying any
// overrides.
func New(opTimeout time.Duration, logger *zap.Logger, opts ...Option) *Locator {
	l := &Locator{
		sets:      DefaultStrategySets(),
		opTimeout: opTimeout,
		logger:    logger.Named("locator"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Set returns the strategy set for a target.
func (l *Locator) Set(target Target) StrategySet {
	return l.sets[target]
}

// FirstMatch tries a target's strategies strictly in order against the
// scope and returns the matches of the first strategy yielding at least
// one element; the remainder are not tried. A strategy whose query errors
// is contained and logged, not fatal. When every strategy comes up empty,
// the error names the target and each attempted strategy.
func (l *Locator) FirstMatch(ctx context.Context, scope Scope, target Target) ([]browser.Element, browser.Descriptor, error) {
	set, ok := l.sets[target]
	if !ok || len(set.Strategies) == 0 {
		return nil, browser.Descriptor{}, fmt.Errorf("no strategies registered for target %q", target)
	}

	attempted := make([]string, 0, len(set.Strategies))
	for _, d := range set.Strategies {
		attempted = append(attempted, d.Label)
		matches, err := scope.FindAll(ctx, d)
		if err != nil {
			if ctx.Err() != nil {
				return nil, browser.Descriptor{}, ctx.Err()
			}
			l.logger.Debug("Strategy query failed; trying next.",
				zap.String("target", string(target)),
				zap.String("strategy", d.Label),
				zap.Error(err))
			continue
		}
		if len(matches) == 0 {
			continue
		}
		l.logger.Debug("Strategy matched.",
			zap.String("target", string(target)),
			zap.String("strategy", d.Label),
			zap.Int("matches", len(matches)))
		return matches, d, nil
	}

	return nil, browser.Descriptor{}, fmt.Errorf("%w: target %q, tried strategies [%s]",
		ErrNoMatch, target, strings.Join(attempted, ", "))
}
