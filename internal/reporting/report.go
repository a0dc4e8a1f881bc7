// File: internal/reporting/report.go
// Description: Serializes scenario results for CI consumption: a JUnit XML
// document (one testcase per scenario, failure nodes carrying the failing
// step and error chain) and a JSON dump of the full results.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/beevik/etree"
	jsoniter "github.com/json-iterator/go"

	"github.com/rvanheerden/cartprobe/internal/scenario"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteReports writes both report formats into dir, creating it when
// needed. Paths are junit.xml and results.json.
func WriteReports(dir string, results []scenario.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	if err := WriteJUnit(filepath.Join(dir, "junit.xml"), results); err != nil {
		return err
	}
	return WriteJSON(filepath.Join(dir, "results.json"), results)
}

// WriteJUnit writes the results as a JUnit XML document.
func WriteJUnit(path string, results []scenario.Result) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", "cartprobe")
	suite.CreateAttr("tests", fmt.Sprintf("%d", len(results)))

	failures := 0
	var total time.Duration
	for _, result := range results {
		total += result.Duration

		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", result.Scenario.Name)
		tc.CreateAttr("classname", "cartprobe.scenario")
		tc.CreateAttr("time", fmt.Sprintf("%.3f", result.Duration.Seconds()))

		if result.Status == scenario.StatusFailed {
			failures++
			failure := tc.CreateElement("failure")
			failure.CreateAttr("message", result.Err)
			for _, step := range result.Steps {
				if step.Err != "" {
					failure.CreateAttr("type", step.Name)
				}
			}
			failure.SetText(stepTranscript(result))
		}
	}
	suite.CreateAttr("failures", fmt.Sprintf("%d", failures))
	suite.CreateAttr("time", fmt.Sprintf("%.3f", total.Seconds()))

	doc.Indent(2)
	if err := doc.WriteToFile(path); err != nil {
		return fmt.Errorf("failed to write JUnit report: %w", err)
	}
	return nil
}

// WriteJSON writes the results as an indented JSON array.
func WriteJSON(path string, results []scenario.Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

// stepTranscript renders the per-step outcomes as a plain text block for
// the failure body.
func stepTranscript(result scenario.Result) string {
	out := ""
	for _, step := range result.Steps {
		status := "ok"
		if step.Err != "" {
			status = "failed: " + step.Err
		}
		out += fmt.Sprintf("%s (%s): %s\n", step.Name, step.Duration.Round(time.Millisecond), status)
	}
	return out
}
