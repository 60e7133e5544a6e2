package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero pages", func(c *Config) { c.Search.Pages = 0 }, "search.pages"},
		{"bad domain", func(c *Config) { c.Search.Domain = "amazon.in" }, "search.domain"},
		{"bad extra format", func(c *Config) { c.Storage.ExtraFormats = []string{"xlsx"} }, "storage.extra_formats"},
		{"csv is not an extra format", func(c *Config) { c.Storage.ExtraFormats = []string{"csv"} }, "storage.extra_formats"},
		{"empty output", func(c *Config) { c.Storage.OutputPath = "" }, "storage.output_path"},
		{"inverted pacing", func(c *Config) {
			c.Pacing.PageDelayMin = 3 * time.Second
			c.Pacing.PageDelayMax = time.Second
		}, "pacing.page_delay"},
		{"broken selector", func(c *Config) { c.Selectors.Reviews = "span[" }, "selectors.reviews"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"mongo missing db", func(c *Config) {
			c.Storage.Mongo.URI = "mongodb://localhost:27017"
			c.Storage.Mongo.Database = ""
		}, "storage.mongo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shopscrape.yaml")
	yaml := `
search:
  domain: https://www.amazon.com
  pages: 4
selectors:
  reviews: "a[href*='customerReviews'] span"
pacing:
  page_delay_min: 1s
  page_delay_max: 2s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.Domain != "https://www.amazon.com" || cfg.Search.Pages != 4 {
		t.Errorf("search section not loaded: %+v", cfg.Search)
	}
	if cfg.Selectors.Reviews != "a[href*='customerReviews'] span" {
		t.Errorf("reviews selector not overridden: %q", cfg.Selectors.Reviews)
	}
	if cfg.Selectors.Card != DefaultSelectors().Card {
		t.Errorf("card selector should keep its default, got %q", cfg.Selectors.Card)
	}
	if cfg.Pacing.PageDelayMax != 2*time.Second {
		t.Errorf("expected page_delay_max 2s, got %s", cfg.Pacing.PageDelayMax)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
