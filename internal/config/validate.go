package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/andybalholm/cascadia"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Search.Domain); err != nil {
		return fmt.Errorf("search.domain: %w", err)
	}
	if cfg.Search.Pages < 1 {
		return fmt.Errorf("search.pages must be >= 1, got %d", cfg.Search.Pages)
	}

	if cfg.Browser.RenderTimeout <= 0 {
		return fmt.Errorf("browser.render_timeout must be > 0")
	}
	if cfg.Browser.WindowWidth < 1 || cfg.Browser.WindowHeight < 1 {
		return fmt.Errorf("browser window must be positive, got %dx%d",
			cfg.Browser.WindowWidth, cfg.Browser.WindowHeight)
	}

	ranges := []struct {
		name     string
		min, max time.Duration
	}{
		{"pacing.nav_delay", cfg.Pacing.NavDelayMin, cfg.Pacing.NavDelayMax},
		{"pacing.scroll_delay", cfg.Pacing.ScrollDelayMin, cfg.Pacing.ScrollDelayMax},
		{"pacing.page_delay", cfg.Pacing.PageDelayMin, cfg.Pacing.PageDelayMax},
	}
	for _, r := range ranges {
		if r.min < 0 || r.max < r.min {
			return fmt.Errorf("%s range is invalid: min=%s max=%s", r.name, r.min, r.max)
		}
	}

	if err := validateSelectors(cfg.Selectors); err != nil {
		return err
	}

	validExtraFormats := map[string]bool{
		"json": true, "jsonl": true,
	}
	for _, f := range cfg.Storage.ExtraFormats {
		if !validExtraFormats[f] {
			return fmt.Errorf("storage.extra_formats: %q is not supported (valid: json, jsonl)", f)
		}
	}
	if cfg.Storage.OutputPath == "" {
		return fmt.Errorf("storage.output_path must not be empty")
	}
	if cfg.Storage.Mongo.URI != "" && (cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "") {
		return fmt.Errorf("storage.mongo requires database and collection when uri is set")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// validateSelectors compiles every selector so a typo fails before the browser starts.
func validateSelectors(sel SelectorConfig) error {
	if sel.IDAttribute == "" {
		return fmt.Errorf("selectors.id_attribute must not be empty")
	}
	fields := map[string]string{
		"card":            sel.Card,
		"title":           sel.Title,
		"title_fallback":  sel.TitleFallback,
		"image":           sel.Image,
		"price_whole":     sel.PriceWhole,
		"price_fraction":  sel.PriceFraction,
		"price_offscreen": sel.PriceOffscreen,
		"rating":          sel.Rating,
		"reviews":         sel.Reviews,
	}
	for name, s := range fields {
		if s == "" {
			return fmt.Errorf("selectors.%s must not be empty", name)
		}
		if _, err := cascadia.Compile(s); err != nil {
			return fmt.Errorf("selectors.%s %q: %w", name, s, err)
		}
	}
	return nil
}

// ValidateURL checks if a URL string is a usable http(s) base domain.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
