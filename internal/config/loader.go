package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied on top by the caller.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SHOPSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shopscrape")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".shopscrape"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env vars can override them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("search.domain", cfg.Search.Domain)
	v.SetDefault("search.pages", cfg.Search.Pages)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)
	v.SetDefault("browser.render_timeout", cfg.Browser.RenderTimeout)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.bin", cfg.Browser.Bin)

	v.SetDefault("pacing.nav_delay_min", cfg.Pacing.NavDelayMin)
	v.SetDefault("pacing.nav_delay_max", cfg.Pacing.NavDelayMax)
	v.SetDefault("pacing.scroll_delay_min", cfg.Pacing.ScrollDelayMin)
	v.SetDefault("pacing.scroll_delay_max", cfg.Pacing.ScrollDelayMax)
	v.SetDefault("pacing.page_delay_min", cfg.Pacing.PageDelayMin)
	v.SetDefault("pacing.page_delay_max", cfg.Pacing.PageDelayMax)

	v.SetDefault("selectors.card", cfg.Selectors.Card)
	v.SetDefault("selectors.id_attribute", cfg.Selectors.IDAttribute)
	v.SetDefault("selectors.title", cfg.Selectors.Title)
	v.SetDefault("selectors.title_fallback", cfg.Selectors.TitleFallback)
	v.SetDefault("selectors.image", cfg.Selectors.Image)
	v.SetDefault("selectors.price_whole", cfg.Selectors.PriceWhole)
	v.SetDefault("selectors.price_fraction", cfg.Selectors.PriceFraction)
	v.SetDefault("selectors.price_offscreen", cfg.Selectors.PriceOffscreen)
	v.SetDefault("selectors.rating", cfg.Selectors.Rating)
	v.SetDefault("selectors.reviews", cfg.Selectors.Reviews)

	v.SetDefault("storage.extra_formats", cfg.Storage.ExtraFormats)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)

	v.SetDefault("snapshot.dir", cfg.Snapshot.Dir)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
