// File: internal/actions/dispatcher.go
// Description: Finds and clicks a selected listing's add-to-cart or
// add-to-wishlist control. The listing name is weakened into progressively
// shorter fragments for tolerant matching; within each fragment the
// control is located through the locator strategy set, and each click is
// retried with escalating interaction force (normal, forced, script) before
// the attempt is considered failed. The final fallbacks are the first
// visible control of the requested kind anywhere on the page, then a fixed
// default descriptor from the site profile.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/browser"
	"github.com/rvanheerden/cartprobe/internal/config"
	"github.com/rvanheerden/cartprobe/internal/locator"
)

// ErrControlNotFound reports that every strategy to find and click the
// requested control was exhausted.
var ErrControlNotFound = errors.New("control not found")

// ControlKind selects which control to activate.
type ControlKind string

const (
	AddToCart     ControlKind = "add-to-cart"
	AddToWishlist ControlKind = "add-to-wishlist"
)

// maxFragmentWords caps how many leading words the strongest non-full
// fragment keeps.
const maxFragmentWords = 3

// Dispatcher activates listing controls.
type Dispatcher struct {
	page      browser.Page
	loc       *locator.Locator
	site      config.SiteProfile
	opTimeout time.Duration
	logger    *zap.Logger
}

// New builds a Dispatcher.
func New(page browser.Page, loc *locator.Locator, site config.SiteProfile, opTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		page:      page,
		loc:       loc,
		site:      site,
		opTimeout: opTimeout,
		logger:    logger.Named("actions"),
	}
}

// ActivateControl locates and clicks the control of the given kind for the
// named listing. It fails only when every strategy is exhausted.
func (d *Dispatcher) ActivateControl(ctx context.Context, listingName string, kind ControlKind) error {
	fragments := NameFragments(listingName)

	for _, fragment := range fragments {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.clickInMatchingContainer(ctx, fragment, kind); err == nil {
			return nil
		} else {
			d.logger.Debug("Fragment attempt failed; weakening.",
				zap.String("fragment", fragment),
				zap.String("kind", string(kind)),
				zap.Error(err))
		}
	}

	// No container matched any fragment: take the first visible control of
	// the requested kind anywhere on the page.
	if err := d.clickFirstVisible(ctx, kind); err == nil {
		d.logger.Warn("Activated control via page-wide fallback; listing containment was not verified.",
			zap.String("listing", listingName),
			zap.String("kind", string(kind)))
		return nil
	} else {
		d.logger.Debug("Page-wide fallback failed.", zap.Error(err))
	}

	// Absolute last resort: the fixed default descriptor from the site
	// profile.
	if err := d.clickDefault(ctx, kind); err == nil {
		d.logger.Warn("Activated control via fixed default descriptor.",
			zap.String("listing", listingName),
			zap.String("kind", string(kind)))
		return nil
	} else {
		d.logger.Debug("Fixed default fallback failed.", zap.Error(err))
	}

	return fmt.Errorf("%w: kind %q for listing %q, tried fragments [%s], page-wide and default fallbacks",
		ErrControlNotFound, kind, listingName, strings.Join(fragments, " | "))
}

// clickInMatchingContainer finds a listing container whose text contains
// the fragment and clicks the control inside it.
func (d *Dispatcher) clickInMatchingContainer(ctx context.Context, fragment string, kind ControlKind) error {
	containers, _, err := d.loc.FirstMatch(ctx, d.page, locator.TargetListing)
	if err != nil {
		return err
	}

	needle := strings.ToLower(fragment)
	for _, container := range containers {
		text, err := container.Text(ctx, d.opTimeout)
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(text), needle) {
			continue
		}

		controls, strategy, err := d.loc.FirstMatch(ctx, container, controlTarget(kind))
		if err != nil {
			d.logger.Debug("Container matched fragment but no control inside.",
				zap.String("fragment", fragment),
				zap.Error(err))
			continue
		}
		if err := d.clickWithEscalation(ctx, controls[0]); err != nil {
			d.logger.Debug("Control click failed at every force level.",
				zap.String("strategy", strategy.Label),
				zap.Error(err))
			continue
		}
		d.logger.Info("Control activated.",
			zap.String("fragment", fragment),
			zap.String("kind", string(kind)),
			zap.String("strategy", strategy.Label))
		return nil
	}
	return fmt.Errorf("no container containing %q yielded a clickable %s control", fragment, kind)
}

// clickFirstVisible clicks the first visible control of the kind anywhere
// on the page.
func (d *Dispatcher) clickFirstVisible(ctx context.Context, kind ControlKind) error {
	controls, _, err := d.loc.FirstMatch(ctx, d.page, controlTarget(kind))
	if err != nil {
		return err
	}
	for _, control := range controls {
		visible, err := control.Visible(ctx, d.opTimeout)
		if err != nil || !visible {
			continue
		}
		if err := d.clickWithEscalation(ctx, control); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no visible %s control could be clicked", kind)
}

// clickDefault clicks the site profile's fixed fallback descriptor.
func (d *Dispatcher) clickDefault(ctx context.Context, kind ControlKind) error {
	selector := d.site.DefaultCartControl
	if kind == AddToWishlist {
		selector = d.site.DefaultWishlistControl
	}
	if selector == "" {
		return fmt.Errorf("no default %s control configured", kind)
	}

	matches, err := d.page.FindAll(ctx, browser.CSS(selector, "site profile default control"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("default selector %q matched nothing", selector)
	}
	return d.clickWithEscalation(ctx, matches[0])
}

// clickWithEscalation clicks with increasing force: a normal click, then a
// forced click, then a script-level click. The last error is returned when
// all three fail.
func (d *Dispatcher) clickWithEscalation(ctx context.Context, el browser.Element) error {
	levels := []browser.ClickOptions{
		{},
		{Force: true},
		{ViaScript: true},
	}
	var lastErr error
	for _, opts := range levels {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := el.Click(ctx, opts); err != nil {
			lastErr = err
			d.logger.Debug("Click attempt failed; escalating force.",
				zap.Bool("force", opts.Force),
				zap.Bool("via_script", opts.ViaScript),
				zap.Error(err))
			continue
		}
		return nil
	}
	return fmt.Errorf("click failed at every force level: %w", lastErr)
}

// controlTarget maps a control kind to its locator target.
func controlTarget(kind ControlKind) locator.Target {
	if kind == AddToWishlist {
		return locator.TargetWishlistControl
	}
	return locator.TargetCartControl
}

// NameFragments derives the tolerant-match fragments for a listing name,
// strongest first: the full name, then the leading words in decreasing
// counts down to the first word alone. Duplicates collapse while
// preserving order.
func NameFragments(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	words := strings.Fields(name)

	fragments := []string{name}
	for n := maxFragmentWords; n >= 1; n-- {
		if n >= len(words) {
			continue
		}
		fragments = append(fragments, strings.Join(words[:n], " "))
	}

	seen := make(map[string]bool, len(fragments))
	out := fragments[:0]
	for _, f := range fragments {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
