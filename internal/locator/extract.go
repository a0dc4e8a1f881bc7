// File: internal/locator/extract.go
// Description: Best-effort name and price extraction from a single listing
// container. Specific field strategies are tried first; when none succeed
// the whole container's text is mined for the first plausible name line or
// the first currency-amount pattern. Each direction runs under
// SafeElementOperation so a slow or broken field read degrades into the
// unstructured fallback instead of failing the candidate outright.
package locator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rvanheerden/cartprobe/internal/browser"
	"github.com/rvanheerden/cartprobe/internal/catalog"
	"github.com/rvanheerden/cartprobe/internal/resilience"
)

// ExtractName reads the product name from a listing container.
func (l *Locator) ExtractName(ctx context.Context, container browser.Element) (string, error) {
	primary := func(ctx context.Context) (string, error) {
		return l.fieldText(ctx, container, TargetName)
	}
	fallback := func(ctx context.Context) (string, error) {
		text, err := container.Text(ctx, l.opTimeout)
		if err != nil {
			return "", fmt.Errorf("container text read failed: %w", err)
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) > minNameLength {
				return line, nil
			}
		}
		return "", fmt.Errorf("no line longer than %d characters in container text", minNameLength)
	}
	return resilience.SafeElementOperation(ctx, l.opTimeout, l.logger, "extract product name", primary, fallback)
}

// ExtractPriceText reads the displayed price from a listing container.
func (l *Locator) ExtractPriceText(ctx context.Context, container browser.Element) (string, error) {
	primary := func(ctx context.Context) (string, error) {
		return l.fieldText(ctx, container, TargetPrice)
	}
	fallback := func(ctx context.Context) (string, error) {
		text, err := container.Text(ctx, l.opTimeout)
		if err != nil {
			return "", fmt.Errorf("container text read failed: %w", err)
		}
		if price, ok := catalog.FindPriceText(text); ok {
			return price, nil
		}
		return "", fmt.Errorf("no currency-amount pattern in container text")
	}
	return resilience.SafeElementOperation(ctx, l.opTimeout, l.logger, "extract product price", primary, fallback)
}

// fieldText resolves a field target inside the container and reads the
// first match's text. Empty text counts as a failure so the caller's
// fallback path can take over; an empty string is never returned as if it
// were a valid value.
func (l *Locator) fieldText(ctx context.Context, container browser.Element, target Target) (string, error) {
	matches, strategy, err := l.FirstMatch(ctx, container, target)
	if err != nil {
		return "", err
	}
	text, err := matches[0].Text(ctx, l.opTimeout)
	if err != nil {
		return "", fmt.Errorf("text read via strategy %q failed: %w", strategy.Label, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("strategy %q matched but text was empty", strategy.Label)
	}
	return text, nil
}
