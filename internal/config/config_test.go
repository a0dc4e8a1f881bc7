// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 8*time.Second, cfg.Network.OperationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Network.ResultsSettleWait)
	assert.Equal(t, "/cart", cfg.Site.CartPath)
	assert.Equal(t, 10, cfg.Run.MaxListings)
	assert.Equal(t, 2, cfg.Run.Concurrency)

	require.NoError(t, cfg.Validate())
}

func TestKeywordsFor(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Contains(t, cfg.Catalog.KeywordsFor("tv"), "television")
	assert.Contains(t, cfg.Catalog.KeywordsFor("TV"), "qled", "lookup is case-insensitive")
	assert.Contains(t, cfg.Catalog.KeywordsFor("monitor"), "gaming monitor")
	// Unconfigured categories fall back to the category name itself.
	assert.Equal(t, []string{"fridge"}, cfg.Catalog.KeywordsFor("Fridge"))
}

func TestScenarioValidate(t *testing.T) {
	valid := ScenarioConfig{
		Name:     "tv-under-15k",
		Search:   "smart tv",
		Category: "tv",
		MaxPrice: 15000,
		Target:   "cart",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ScenarioConfig)
		want   string
	}{
		{"missing name", func(s *ScenarioConfig) { s.Name = "" }, "name is required"},
		{"missing search", func(s *ScenarioConfig) { s.Search = "" }, "search term is required"},
		{"missing category", func(s *ScenarioConfig) { s.Category = "" }, "category is required"},
		{"bad target", func(s *ScenarioConfig) { s.Target = "basket" }, "target must be"},
		{"no criteria", func(s *ScenarioConfig) { s.MaxPrice = 0 }, "either max_price or min_refresh_hz"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := valid
			tc.mutate(&sc)
			err := sc.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Run.Concurrency = 0
	require.ErrorContains(t, cfg.Validate(), "run.concurrency")

	cfg = NewDefaultConfig()
	cfg.Network.OperationTimeout = 0
	require.ErrorContains(t, cfg.Validate(), "operation_timeout")

	cfg = NewDefaultConfig()
	cfg.Scenarios = []ScenarioConfig{{Name: "broken"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario 0 ("broken")`)
}

func TestNewViperReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cartprobe.yaml")
	content := `
site:
  base_url: https://store.example
run:
  concurrency: 4
scenarios:
  - name: tv-under-15k
    search: smart tv
    brand: Samsung
    category: tv
    max_price: 15000
    target: cart
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "https://store.example", cfg.Site.BaseURL)
	assert.Equal(t, 4, cfg.Run.Concurrency)
	// Defaults survive where the file is silent.
	assert.Equal(t, "/cart", cfg.Site.CartPath)
	require.Len(t, cfg.Scenarios, 1)
	assert.Equal(t, "Samsung", cfg.Scenarios[0].Brand)
	assert.Equal(t, 15000.0, cfg.Scenarios[0].MaxPrice)
}

func TestNewViperMissingExplicitFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNewViperEnvOverride(t *testing.T) {
	t.Setenv("CARTPROBE_RUN_CONCURRENCY", "7")

	v, err := NewViper("")
	require.NoError(t, err)
	assert.Equal(t, 7, v.GetInt("run.concurrency"))
}
