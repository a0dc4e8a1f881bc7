// File: internal/verify/verify.go
// Description: Confirms that an added listing actually appears in the cart
// or wishlist view. Name/presence verification uses the same fragment
// weakening as the action dispatcher and is fatal on failure. Price
// verification is attempted when an expected price is supplied, but any
// failure there is logged and swallowed: price display formatting on the
// target view is known to vary and must not make the scenario brittle.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/actions"
	"github.com/rvanheerden/cartprobe/internal/browser"
	"github.com/rvanheerden/cartprobe/internal/catalog"
	"github.com/rvanheerden/cartprobe/internal/locator"
	"github.com/rvanheerden/cartprobe/internal/resilience"
)

// ErrNotPresent reports that the listing could not be found in the target
// view under any fragment.
var ErrNotPresent = errors.New("listing not present in target view")

// ErrAmbiguousMatch reports that the chosen fragment matched more than one
// entry, so presence cannot be asserted for the specific listing.
var ErrAmbiguousMatch = errors.New("fragment matched multiple entries")

// Verifier checks a target view for an expected listing.
type Verifier struct {
	page      browser.Page
	loc       *locator.Locator
	opTimeout time.Duration
	logger    *zap.Logger
}

// New builds a Verifier.
func New(page browser.Page, loc *locator.Locator, opTimeout time.Duration, logger *zap.Logger) *Verifier {
	return &Verifier{
		page:      page,
		loc:       loc,
		opTimeout: opTimeout,
		logger:    logger.Named("verify"),
	}
}

// VerifyPresence asserts that the listing appears, visibly and
// unambiguously, in the current view. When expectedPriceText is non-empty
// the displayed price is compared too, tolerating absent or unparsable
// price display.
func (v *Verifier) VerifyPresence(ctx context.Context, listingName, expectedPriceText string) error {
	entry, fragment, err := v.findEntry(ctx, listingName)
	if err != nil {
		return err
	}

	visible, err := entry.Visible(ctx, v.opTimeout)
	if err != nil {
		return fmt.Errorf("visibility check failed for %q (fragment %q): %w", listingName, fragment, err)
	}
	if !visible {
		return fmt.Errorf("%w: %q matched via fragment %q but is not visible", ErrNotPresent, listingName, fragment)
	}
	v.logger.Info("Listing present in target view.",
		zap.String("listing", listingName),
		zap.String("fragment", fragment))

	if expectedPriceText != "" {
		v.verifyPriceBestEffort(ctx, entry, listingName, expectedPriceText)
	}
	return nil
}

// findEntry locates the listing's entry via fragment weakening. The first
// fragment with at least one match is the chosen fragment; exactly one
// match must exist for it.
func (v *Verifier) findEntry(ctx context.Context, listingName string) (browser.Element, string, error) {
	fragments := actions.NameFragments(listingName)

	for _, fragment := range fragments {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		entries, err := v.matchingEntries(ctx, fragment)
		if err != nil {
			v.logger.Debug("Entry lookup failed; weakening fragment.",
				zap.String("fragment", fragment),
				zap.Error(err))
			continue
		}
		switch len(entries) {
		case 0:
			continue
		case 1:
			return entries[0], fragment, nil
		default:
			return nil, "", fmt.Errorf("%w: fragment %q matched %d entries for listing %q",
				ErrAmbiguousMatch, fragment, len(entries), listingName)
		}
	}
	return nil, "", fmt.Errorf("%w: %q, tried fragments [%s]",
		ErrNotPresent, listingName, strings.Join(fragments, " | "))
}

// matchingEntries returns the view's entries whose text contains the
// fragment, case-insensitively.
func (v *Verifier) matchingEntries(ctx context.Context, fragment string) ([]browser.Element, error) {
	containers, _, err := v.loc.FirstMatch(ctx, v.page, locator.TargetListing)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(fragment)
	var matched []browser.Element
	for _, container := range containers {
		text, err := container.Text(ctx, v.opTimeout)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			matched = append(matched, container)
		}
	}
	return matched, nil
}

// verifyPriceBestEffort compares the entry's displayed price with the
// expected one. Every failure mode degrades to a log line.
func (v *Verifier) verifyPriceBestEffort(ctx context.Context, entry browser.Element, listingName, expectedPriceText string) {
	matches := resilience.WithGracefulDegradation(ctx, v.logger, "verify displayed price", false,
		func(ctx context.Context) (bool, error) {
			expected, ok := catalog.ParsePrice(expectedPriceText)
			if !ok {
				return false, fmt.Errorf("expected price %q is not parsable", expectedPriceText)
			}
			text, err := entry.Text(ctx, v.opTimeout)
			if err != nil {
				return false, fmt.Errorf("entry text read failed: %w", err)
			}
			displayedText, ok := catalog.FindPriceText(text)
			if !ok {
				return false, fmt.Errorf("no price displayed for entry")
			}
			displayed, ok := catalog.ParsePrice(displayedText)
			if !ok {
				return false, fmt.Errorf("displayed price %q is not parsable", displayedText)
			}
			if displayed != expected {
				return false, fmt.Errorf("displayed price %s differs from expected %s",
					catalog.FormatPrice(displayed), catalog.FormatPrice(expected))
			}
			return true, nil
		})
	if matches {
		v.logger.Info("Displayed price matches.",
			zap.String("listing", listingName),
			zap.String("price", expectedPriceText))
	}
}
