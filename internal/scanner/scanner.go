// File: internal/scanner/scanner.go
// Description: Walks the first N listings on a results page, extracts a
// (name, price) candidate from each, and returns the first one satisfying
// the scenario's criteria. "First match in display order" is an explicit
// tie-break rule mirrored from the product requirement; it must not be
// changed to "cheapest match" or "best match" without a requirement
// change. One bad candidate never aborts the scan of the rest.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/browser"
	"github.com/rvanheerden/cartprobe/internal/catalog"
	"github.com/rvanheerden/cartprobe/internal/locator"
	"github.com/rvanheerden/cartprobe/internal/resilience"
)

// ErrNoListings reports that the results page yielded zero listing
// containers. Callers typically wrap the scan in WithNetworkResilience so
// a slow results render gets retried.
var ErrNoListings = errors.New("no product listings found on results page")

// Scanner scans a results page for a qualifying listing.
type Scanner struct {
	page        browser.Page
	loc         *locator.Locator
	maxListings int
	settleWait  time.Duration
	opTimeout   time.Duration
	logger      *zap.Logger
}

// New builds a Scanner. maxListings caps how many containers are
// inspected per scan.
func New(page browser.Page, loc *locator.Locator, maxListings int, settleWait, opTimeout time.Duration, logger *zap.Logger) *Scanner {
	if maxListings <= 0 {
		maxListings = 10
	}
	return &Scanner{
		page:        page,
		loc:         loc,
		maxListings: maxListings,
		settleWait:  settleWait,
		opTimeout:   opTimeout,
		logger:      logger.Named("scanner"),
	}
}

// candidateRules are the shape checks every extracted candidate must pass.
var candidateRules = []resilience.Rule[catalog.Candidate]{
	{Check: func(c catalog.Candidate) bool { return c.Name != "" }, Message: "product name is empty"},
	{Check: func(c catalog.Candidate) bool { return c.PriceText != "" }, Message: "price text is missing"},
}

// FindFirstMatch scans up to the configured cap of listings in display
// order and returns the first candidate satisfying the criteria. A nil
// candidate with a nil error means no listing qualified, which is an
// expected outcome the caller must handle explicitly, not an error.
func (s *Scanner) FindFirstMatch(ctx context.Context, criteria catalog.Criteria) (*catalog.Candidate, error) {
	// Let asynchronous results content settle before querying.
	if s.settleWait > 0 {
		if err := s.page.Sleep(ctx, s.settleWait); err != nil {
			return nil, err
		}
	}

	containers, strategy, err := s.loc.FirstMatch(ctx, s.page, locator.TargetListing)
	if err != nil {
		if errors.Is(err, locator.ErrNoMatch) {
			return nil, fmt.Errorf("%w: %v", ErrNoListings, err)
		}
		return nil, err
	}
	if len(containers) > s.maxListings {
		containers = containers[:s.maxListings]
	}
	s.logger.Info("Scanning listings.",
		zap.String("criteria", criteria.Description),
		zap.String("strategy", strategy.Label),
		zap.Int("listings", len(containers)))

	for i, container := range containers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		candidate, err := s.extractCandidate(ctx, container)
		if err != nil {
			// Extraction failure for one candidate must not abort the
			// scan of the remaining candidates.
			s.logger.Warn("Skipping listing; extraction failed.",
				zap.Int("position", i),
				zap.Error(err))
			continue
		}

		if criteria.Matches(*candidate) {
			s.logger.Info("Found matching listing.",
				zap.Int("position", i),
				zap.String("name", candidate.Name),
				zap.String("price", candidate.PriceText))
			return candidate, nil
		}
		s.logger.Debug("Listing does not match criteria.",
			zap.Int("position", i),
			zap.String("name", candidate.Name),
			zap.String("price", candidate.PriceText))
	}

	s.logger.Info("No listing satisfied the criteria.",
		zap.String("criteria", criteria.Description),
		zap.Int("scanned", len(containers)))
	return nil, nil
}

// extractCandidate pulls name, price, and raw text out of one container.
// The raw text is optional context for classification; name and price are
// validated together so a failure names every missing field at once.
func (s *Scanner) extractCandidate(ctx context.Context, container browser.Element) (*catalog.Candidate, error) {
	var candidate catalog.Candidate

	name, err := s.loc.ExtractName(ctx, container)
	if err == nil {
		candidate.Name = name
	} else {
		s.logger.Debug("Name extraction failed.", zap.Error(err))
	}

	priceText, err := s.loc.ExtractPriceText(ctx, container)
	if err == nil {
		candidate.PriceText = priceText
	} else {
		s.logger.Debug("Price extraction failed.", zap.Error(err))
	}

	candidate.RawText = resilience.WithGracefulDegradation(ctx, s.logger, "read listing raw text", "",
		func(ctx context.Context) (string, error) {
			return container.Text(ctx, s.opTimeout)
		})

	if err := resilience.ValidateData(candidate, candidateRules, "listing candidate"); err != nil {
		return nil, err
	}
	return &candidate, nil
}
