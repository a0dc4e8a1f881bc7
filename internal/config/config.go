// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Network   NetworkConfig    `mapstructure:"network" yaml:"network"`
	Site      SiteProfile      `mapstructure:"site" yaml:"site"`
	Catalog   CatalogConfig    `mapstructure:"catalog" yaml:"catalog"`
	Run       RunConfig        `mapstructure:"run" yaml:"run"`
	Scenarios []ScenarioConfig `mapstructure:"scenarios" yaml:"scenarios"`
}

// LoggerConfig controls the zap logging setup.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig controls the chromedp allocator.
type BrowserConfig struct {
	Headless     bool   `mapstructure:"headless" yaml:"headless"`
	UserAgent    string `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth  int    `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int    `mapstructure:"window_height" yaml:"window_height"`
	DisableCache bool   `mapstructure:"disable_cache" yaml:"disable_cache"`
}

// NetworkConfig controls per-operation timeouts and pacing. Timeouts attach
// to individual browser operations, never to a whole scenario; a hung
// operation fails fast instead of hanging the run.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	OperationTimeout  time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	ResultsSettleWait time.Duration `mapstructure:"results_settle_wait" yaml:"results_settle_wait"`
	// NavigationsPerSecond bounds how fast a session may issue navigations
	// and searches against the storefront.
	NavigationsPerSecond float64 `mapstructure:"navigations_per_second" yaml:"navigations_per_second"`
}

// SiteProfile describes the storefront under test: entry URLs and the
// fixed fallback descriptors used when every smarter strategy fails.
type SiteProfile struct {
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	CartPath     string `mapstructure:"cart_path" yaml:"cart_path"`
	WishlistPath string `mapstructure:"wishlist_path" yaml:"wishlist_path"`
	SearchInput  string `mapstructure:"search_input" yaml:"search_input"`
	// Last-resort control selectors, tried after every fragment and
	// generic strategy is exhausted.
	DefaultCartControl     string `mapstructure:"default_cart_control" yaml:"default_cart_control"`
	DefaultWishlistControl string `mapstructure:"default_wishlist_control" yaml:"default_wishlist_control"`
}

// CatalogConfig carries the classifier keyword sets. Keyword sets are
// configuration, not hardcoded per product.
type CatalogConfig struct {
	CategoryKeywords map[string][]string `mapstructure:"category_keywords" yaml:"category_keywords"`
}

// KeywordsFor returns the keyword set for a category, falling back to the
// category name itself when no set is configured.
func (c CatalogConfig) KeywordsFor(category string) []string {
	if kw, ok := c.CategoryKeywords[strings.ToLower(category)]; ok && len(kw) > 0 {
		return kw
	}
	return []string{strings.ToLower(category)}
}

// RunConfig controls scenario execution.
type RunConfig struct {
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
	ReportDir   string `mapstructure:"report_dir" yaml:"report_dir"`
	MaxListings int    `mapstructure:"max_listings" yaml:"max_listings"`
}

// ScenarioConfig describes one end-to-end scenario: what to search for,
// which listing qualifies, and where the added item must appear.
type ScenarioConfig struct {
	Name       string  `mapstructure:"name" yaml:"name"`
	Search     string  `mapstructure:"search" yaml:"search"`
	Brand      string  `mapstructure:"brand" yaml:"brand"`
	Category   string  `mapstructure:"category" yaml:"category"`
	MaxPrice   float64 `mapstructure:"max_price" yaml:"max_price"`
	MinRefresh int     `mapstructure:"min_refresh_hz" yaml:"min_refresh_hz"`
	Target     string  `mapstructure:"target" yaml:"target"` // "cart" or "wishlist"
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "cartprobe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.disable_cache", true)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "45s")
	v.SetDefault("network.operation_timeout", "8s")
	v.SetDefault("network.post_load_wait", "1500ms")
	v.SetDefault("network.results_settle_wait", "2s")
	v.SetDefault("network.navigations_per_second", 1.0)

	// -- Site --
	v.SetDefault("site.cart_path", "/cart")
	v.SetDefault("site.wishlist_path", "/wishlist")
	v.SetDefault("site.search_input", `input[type="search"]`)
	v.SetDefault("site.default_cart_control", `button[data-ref="add-to-cart-button"]`)
	v.SetDefault("site.default_wishlist_control", `button[data-ref="add-to-wishlist-button"]`)

	// -- Catalog --
	v.SetDefault("catalog.category_keywords", map[string][]string{
		"tv":      {"tv", "television", "smart tv", "led tv", "qled", "oled"},
		"monitor": {"monitor", "display", "screen", "lcd", "gaming monitor"},
	})

	// -- Run --
	v.SetDefault("run.concurrency", 2)
	v.SetDefault("run.max_listings", 10)
}

// NewViper builds a viper instance with cartprobe's config discovery rules:
// an explicit file wins, otherwise cartprobe.yaml in the working directory
// or the user's home directory, with CARTPROBE_* env overrides.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("cartprobe")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CARTPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars apply.
	}
	return v, nil
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Run.Concurrency <= 0 {
		return fmt.Errorf("run.concurrency must be a positive integer")
	}
	if c.Run.MaxListings <= 0 {
		return fmt.Errorf("run.max_listings must be a positive integer")
	}
	if c.Network.OperationTimeout <= 0 {
		return fmt.Errorf("network.operation_timeout must be a positive duration")
	}
	for i := range c.Scenarios {
		if err := c.Scenarios[i].Validate(); err != nil {
			return fmt.Errorf("scenario %d (%q) invalid: %w", i, c.Scenarios[i].Name, err)
		}
	}
	return nil
}

// Validate checks a single scenario definition.
func (s *ScenarioConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Search == "" {
		return fmt.Errorf("search term is required")
	}
	if s.Category == "" {
		return fmt.Errorf("category is required")
	}
	switch s.Target {
	case "cart", "wishlist":
	default:
		return fmt.Errorf("target must be %q or %q, got %q", "cart", "wishlist", s.Target)
	}
	if s.MaxPrice <= 0 && s.MinRefresh <= 0 {
		return fmt.Errorf("either max_price or min_refresh_hz must be set")
	}
	return nil
}
