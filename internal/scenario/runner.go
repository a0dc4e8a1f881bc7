// File: internal/scenario/runner.go
// Description: Drives one end-to-end scenario against a storefront page:
// navigate, search, scan for a qualifying listing, add it to the target
// view, and verify it arrived. Each runner owns exactly one page; state is
// never shared across scenarios. Failures carry the step name so a failed
// run reads as "which step, which strategies" rather than a bare error.
package scenario

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/actions"
	"github.com/rvanheerden/cartprobe/internal/browser"
	"github.com/rvanheerden/cartprobe/internal/catalog"
	"github.com/rvanheerden/cartprobe/internal/config"
	"github.com/rvanheerden/cartprobe/internal/locator"
	"github.com/rvanheerden/cartprobe/internal/resilience"
	"github.com/rvanheerden/cartprobe/internal/scanner"
	"github.com/rvanheerden/cartprobe/internal/verify"
)

// Status is a scenario outcome.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// StepResult records one step of a scenario run.
type StepResult struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// Result is the outcome of one scenario run, consumed by reporting.
type Result struct {
	Scenario config.ScenarioConfig `json:"scenario"`
	Status   Status                `json:"status"`
	Steps    []StepResult          `json:"steps"`
	Err      string                `json:"error,omitempty"`
	Duration time.Duration         `json:"duration"`
	// Selected is the listing the scanner picked, when it got that far.
	Selected *catalog.Candidate `json:"selected,omitempty"`
}

// Runner executes one scenario over one page.
type Runner struct {
	page     browser.Page
	loc      *locator.Locator
	scan     *scanner.Scanner
	dispatch *actions.Dispatcher
	verifier *verify.Verifier
	cfg      *config.Config
	logger   *zap.Logger
}

// NewRunner wires the scanning, action, and verification components over
// the given page.
func NewRunner(page browser.Page, cfg *config.Config, logger *zap.Logger) *Runner {
	logger = logger.Named("scenario")
	loc := locator.New(cfg.Network.OperationTimeout, logger)
	return &Runner{
		page:     page,
		loc:      loc,
		scan:     scanner.New(page, loc, cfg.Run.MaxListings, cfg.Network.ResultsSettleWait, cfg.Network.OperationTimeout, logger),
		dispatch: actions.New(page, loc, cfg.Site, cfg.Network.OperationTimeout, logger),
		verifier: verify.New(page, loc, cfg.Network.OperationTimeout, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes the scenario and returns its result. The returned Result
// is always complete; the error mirrors Result.Err for callers that treat
// a failed scenario as fatal.
func (r *Runner) Run(ctx context.Context, sc config.ScenarioConfig) (Result, error) {
	logger := r.logger.With(zap.String("scenario", sc.Name))
	logger.Info("Starting scenario.",
		zap.String("search", sc.Search),
		zap.String("target", sc.Target))

	started := time.Now()
	result := Result{Scenario: sc, Status: StatusPassed}

	var selected *catalog.Candidate
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"navigate to storefront", func(ctx context.Context) error {
			_, err := resilience.WithNetworkResilience(ctx, logger, "open storefront", true,
				func(ctx context.Context) (struct{}, error) {
					return struct{}{}, r.page.Navigate(ctx, r.cfg.Site.BaseURL)
				})
			return err
		}},
		{"dismiss overlay", func(ctx context.Context) error {
			r.dismissOverlayBestEffort(ctx, logger)
			return nil
		}},
		{"search", func(ctx context.Context) error {
			_, err := resilience.WithNetworkResilience(ctx, logger, "submit search", true,
				func(ctx context.Context) (struct{}, error) {
					if err := r.page.Fill(ctx, r.cfg.Site.SearchInput, sc.Search); err != nil {
						return struct{}{}, err
					}
					return struct{}{}, r.page.Press(ctx, r.cfg.Site.SearchInput, "Enter")
				})
			return err
		}},
		{"scan results", func(ctx context.Context) error {
			criteria := r.criteriaFor(sc)
			candidate, err := resilience.WithNetworkResilience(ctx, logger, "scan result listings", true,
				func(ctx context.Context) (*catalog.Candidate, error) {
					return r.scan.FindFirstMatch(ctx, criteria)
				})
			if err != nil {
				return err
			}
			if candidate == nil {
				// An expected outcome of the scan, but fatal for a
				// scenario that exists to add a qualifying product.
				return fmt.Errorf("no listing satisfied criteria: %s", criteria.Description)
			}
			selected = candidate
			result.Selected = candidate
			return nil
		}},
		{"add to " + sc.Target, func(ctx context.Context) error {
			return r.dispatch.ActivateControl(ctx, selected.Name, controlKind(sc.Target))
		}},
		{"open " + sc.Target + " view", func(ctx context.Context) error {
			_, err := resilience.WithNetworkResilience(ctx, logger, "open "+sc.Target+" view", true,
				func(ctx context.Context) (struct{}, error) {
					return struct{}{}, r.page.Navigate(ctx, r.targetURL(sc.Target))
				})
			return err
		}},
		{"verify presence", func(ctx context.Context) error {
			return r.verifier.VerifyPresence(ctx, selected.Name, selected.PriceText)
		}},
	}

	for _, step := range steps {
		stepStart := time.Now()
		err := step.fn(ctx)
		sr := StepResult{Name: step.name, Duration: time.Since(stepStart)}
		if err != nil {
			sr.Err = err.Error()
			result.Steps = append(result.Steps, sr)
			result.Status = StatusFailed
			result.Err = fmt.Sprintf("step %q: %v", step.name, err)
			result.Duration = time.Since(started)
			logger.Error("Scenario failed.",
				zap.String("step", step.name),
				zap.Error(err))
			return result, fmt.Errorf("scenario %q failed at step %q: %w", sc.Name, step.name, err)
		}
		result.Steps = append(result.Steps, sr)
	}

	result.Duration = time.Since(started)
	logger.Info("Scenario passed.", zap.Duration("duration", result.Duration))
	return result, nil
}

// dismissOverlayBestEffort closes a cookie banner or promo modal when one
// is present. Strictly optional: absence or failure never fails the run.
func (r *Runner) dismissOverlayBestEffort(ctx context.Context, logger *zap.Logger) {
	resilience.WithGracefulDegradation(ctx, logger, "dismiss overlay", struct{}{},
		func(ctx context.Context) (struct{}, error) {
			controls, _, err := r.loc.FirstMatch(ctx, r.page, locator.TargetOverlayDismiss)
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, controls[0].Click(ctx, browser.ClickOptions{})
		})
}

// criteriaFor translates scenario configuration into selection criteria.
// A price ceiling takes brand+category+price form; otherwise the refresh
// rate floor applies.
func (r *Runner) criteriaFor(sc config.ScenarioConfig) catalog.Criteria {
	keywords := r.cfg.Catalog.KeywordsFor(sc.Category)
	if sc.MaxPrice > 0 {
		return catalog.BrandCategoryUnderPrice(sc.Brand, keywords, sc.MaxPrice)
	}
	return catalog.CategoryMinRefreshRate(keywords, sc.MinRefresh)
}

// targetURL resolves the cart or wishlist view URL.
func (r *Runner) targetURL(target string) string {
	path := r.cfg.Site.CartPath
	if target == "wishlist" {
		path = r.cfg.Site.WishlistPath
	}
	return r.cfg.Site.BaseURL + path
}

// controlKind maps a scenario target to the control to activate.
func controlKind(target string) actions.ControlKind {
	if target == "wishlist" {
		return actions.AddToWishlist
	}
	return actions.AddToCart
}
