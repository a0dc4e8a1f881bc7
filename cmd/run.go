// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rvanheerden/cartprobe/internal/browser"
	"github.com/rvanheerden/cartprobe/internal/config"
	"github.com/rvanheerden/cartprobe/internal/observability"
	"github.com/rvanheerden/cartprobe/internal/reporting"
	"github.com/rvanheerden/cartprobe/internal/scenario"
)

func newRunCommand() *cobra.Command {
	var (
		scenarioFilter []string
		headless       bool
		reportDir      string
		concurrency    int
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured scenarios against the storefront.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			if cmd.Flags().Changed("report-dir") {
				cfg.Run.ReportDir = reportDir
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Run.Concurrency = concurrency
			}

			scenarios := selectScenarios(cfg.Scenarios, scenarioFilter)
			if len(scenarios) == 0 {
				return fmt.Errorf("no scenarios selected (configured: %d, filter: %v)", len(cfg.Scenarios), scenarioFilter)
			}
			return runScenarios(cmd.Context(), cfg, scenarios)
		},
	}

	runCmd.Flags().StringSliceVarP(&scenarioFilter, "scenario", "s", nil, "run only the named scenario(s)")
	runCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	runCmd.Flags().StringVar(&reportDir, "report-dir", "", "write junit.xml and results.json into this directory")
	runCmd.Flags().IntVar(&concurrency, "concurrency", 0, "maximum scenarios running in parallel")
	return runCmd
}

// runScenarios executes the scenarios in parallel isolated browser
// sessions. Sessions share no state; only the result slice is guarded.
func runScenarios(ctx context.Context, cfg *config.Config, scenarios []config.ScenarioConfig) error {
	logger := observability.GetLogger()

	var mu sync.Mutex
	results := make([]scenario.Result, 0, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Run.Concurrency)

	for _, sc := range scenarios {
		g.Go(func() error {
			result, err := runOne(gctx, cfg, sc, logger)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return err
		})
	}
	runErr := g.Wait()

	if cfg.Run.ReportDir != "" {
		if err := reporting.WriteReports(cfg.Run.ReportDir, results); err != nil {
			logger.Error("Failed to write reports.", zap.Error(err))
			if runErr == nil {
				runErr = err
			}
		} else {
			logger.Info("Reports written.", zap.String("dir", cfg.Run.ReportDir))
		}
	}

	passed := 0
	for _, result := range results {
		if result.Status == scenario.StatusPassed {
			passed++
		}
	}
	logger.Info("Run complete.",
		zap.Int("passed", passed),
		zap.Int("failed", len(results)-passed))
	return runErr
}

// runOne executes a single scenario in its own browser session.
func runOne(ctx context.Context, cfg *config.Config, sc config.ScenarioConfig, logger *zap.Logger) (scenario.Result, error) {
	session, err := browser.NewSession(ctx, cfg.Browser, cfg.Network, logger)
	if err != nil {
		return scenario.Result{
			Scenario: sc,
			Status:   scenario.StatusFailed,
			Err:      fmt.Sprintf("browser session: %v", err),
		}, fmt.Errorf("scenario %q: failed to start browser session: %w", sc.Name, err)
	}
	defer session.Close()

	runner := scenario.NewRunner(session, cfg, logger)
	return runner.Run(ctx, sc)
}

// selectScenarios applies the --scenario name filter.
func selectScenarios(all []config.ScenarioConfig, filter []string) []config.ScenarioConfig {
	if len(filter) == 0 {
		return all
	}
	wanted := make(map[string]bool, len(filter))
	for _, name := range filter {
		wanted[name] = true
	}
	var out []config.ScenarioConfig
	for _, sc := range all {
		if wanted[sc.Name] {
			out = append(out, sc)
		}
	}
	return out
}
