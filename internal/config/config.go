package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultUserAgent is the desktop Chrome UA sent when none is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// Config is the root configuration for shopscrape.
type Config struct {
	Search    SearchConfig   `mapstructure:"search"    yaml:"search"`
	Browser   BrowserConfig  `mapstructure:"browser"   yaml:"browser"`
	Pacing    PacingConfig   `mapstructure:"pacing"    yaml:"pacing"`
	Selectors SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
	Storage   StorageConfig  `mapstructure:"storage"   yaml:"storage"`
	Snapshot  SnapshotConfig `mapstructure:"snapshot"  yaml:"snapshot"`
	Logging   LoggingConfig  `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig  `mapstructure:"metrics"   yaml:"metrics"`
}

// SearchConfig controls which result pages are requested.
type SearchConfig struct {
	Domain string `mapstructure:"domain" yaml:"domain"`
	Pages  int    `mapstructure:"pages"  yaml:"pages"`
}

// BrowserConfig controls the render session.
type BrowserConfig struct {
	Headless      bool          `mapstructure:"headless"       yaml:"headless"`
	UserAgent     string        `mapstructure:"user_agent"     yaml:"user_agent"`
	WindowWidth   int           `mapstructure:"window_width"   yaml:"window_width"`
	WindowHeight  int           `mapstructure:"window_height"  yaml:"window_height"`
	RenderTimeout time.Duration `mapstructure:"render_timeout" yaml:"render_timeout"`
	Stealth       bool          `mapstructure:"stealth"        yaml:"stealth"`
	// Bin overrides the browser executable; empty lets rod download or find one.
	Bin string `mapstructure:"bin" yaml:"bin"`
}

// PacingConfig holds the randomized pauses around navigation and scrolling.
type PacingConfig struct {
	NavDelayMin    time.Duration `mapstructure:"nav_delay_min"    yaml:"nav_delay_min"`
	NavDelayMax    time.Duration `mapstructure:"nav_delay_max"    yaml:"nav_delay_max"`
	ScrollDelayMin time.Duration `mapstructure:"scroll_delay_min" yaml:"scroll_delay_min"`
	ScrollDelayMax time.Duration `mapstructure:"scroll_delay_max" yaml:"scroll_delay_max"`
	PageDelayMin   time.Duration `mapstructure:"page_delay_min"   yaml:"page_delay_min"`
	PageDelayMax   time.Duration `mapstructure:"page_delay_max"   yaml:"page_delay_max"`
}

// SelectorConfig holds the CSS selectors used to map a result card.
type SelectorConfig struct {
	Card           string `mapstructure:"card"            yaml:"card"`
	IDAttribute    string `mapstructure:"id_attribute"    yaml:"id_attribute"`
	Title          string `mapstructure:"title"           yaml:"title"`
	TitleFallback  string `mapstructure:"title_fallback"  yaml:"title_fallback"`
	Image          string `mapstructure:"image"           yaml:"image"`
	PriceWhole     string `mapstructure:"price_whole"     yaml:"price_whole"`
	PriceFraction  string `mapstructure:"price_fraction"  yaml:"price_fraction"`
	PriceOffscreen string `mapstructure:"price_offscreen" yaml:"price_offscreen"`
	Rating         string `mapstructure:"rating"          yaml:"rating"`
	// Reviews defaults to a generic small-text class and can match the
	// wrong span on some card layouts; override per site.
	Reviews string `mapstructure:"reviews" yaml:"reviews"`
}

// StorageConfig controls output/storage. The CSV at OutputPath is always
// written; ExtraFormats (json, jsonl) are written next to it.
type StorageConfig struct {
	OutputPath   string      `mapstructure:"output_path"   yaml:"output_path"`
	ExtraFormats []string    `mapstructure:"extra_formats" yaml:"extra_formats"`
	Mongo        MongoConfig `mapstructure:"mongo"         yaml:"mongo"`
}

// MongoConfig enables an additional MongoDB sink when URI is set.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// SnapshotConfig controls saving rendered pages to disk.
type SnapshotConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultSelectors returns the selectors for the current marketplace markup.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Card:           `div[data-asin][data-component-type="s-search-result"]`,
		IDAttribute:    "data-asin",
		Title:          "h2 a.a-link-normal.a-text-normal",
		TitleFallback:  "h2 a",
		Image:          "img.s-image",
		PriceWhole:     ".a-price .a-price-whole",
		PriceFraction:  ".a-price .a-price-fraction",
		PriceOffscreen: "span.a-offscreen",
		Rating:         ".a-icon-alt",
		Reviews:        "span.a-size-base",
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Domain: "https://www.amazon.in",
			Pages:  1,
		},
		Browser: BrowserConfig{
			Headless:      false,
			UserAgent:     DefaultUserAgent,
			WindowWidth:   1200,
			WindowHeight:  900,
			RenderTimeout: 45 * time.Second,
		},
		Pacing: PacingConfig{
			NavDelayMin:    2 * time.Second,
			NavDelayMax:    4 * time.Second,
			ScrollDelayMin: 500 * time.Millisecond,
			ScrollDelayMax: 1200 * time.Millisecond,
			PageDelayMin:   2500 * time.Millisecond,
			PageDelayMax:   5 * time.Second,
		},
		Selectors: DefaultSelectors(),
		Storage: StorageConfig{
			OutputPath: "amazon_results.csv",
			Mongo: MongoConfig{
				Database:   "shopscrape",
				Collection: "products",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
