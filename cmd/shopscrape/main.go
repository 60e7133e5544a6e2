package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/IshaanNene/shopscrape/internal/config"
)

var (
	cfgFile         string
	verbose         bool
	pages           int
	domain          string
	headless        bool
	outputPath      string
	extraFormats    []string
	userAgent       string
	reviewsSelector string
	snapshotDir     string
	mongoURI        string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shopscrape [query]",
		Short: "shopscrape - marketplace search results to CSV",
		Long: `shopscrape renders marketplace search result pages in a real browser,
extracts one record per product card (asin, title, link, image, price,
rating, reviews), drops duplicate ASINs and writes a CSV file.

Running the root command with a query is the same as "shopscrape search".
A query that matches a command name (search, extract, config, version) runs
that command instead; use "shopscrape search <query>" for it.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runRoot,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	addOutputFlags(rootCmd.PersistentFlags())
	addSearchFlags(rootCmd.Flags())

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	return runSearch(cmd, args)
}

// addOutputFlags registers flags shared by every command that exports.
func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&domain, "domain", "d", "", "marketplace base domain (default https://www.amazon.in)")
	fs.StringVarP(&outputPath, "out", "o", "", "output file (default amazon_results.csv)")
	fs.StringSliceVar(&extraFormats, "format", nil, "also write json and/or jsonl next to the CSV")
	fs.StringVar(&reviewsSelector, "reviews-selector", "", "CSS selector for the review count inside a card")
	fs.StringVar(&mongoURI, "mongo-uri", "", "also upsert products into MongoDB")
}

// addSearchFlags registers flags that only apply to live scraping.
func addSearchFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&pages, "pages", "p", 1, "number of result pages to scrape")
	fs.BoolVar(&headless, "headless", false, "run the browser headless")
	fs.StringVar(&userAgent, "user-agent", "", "browser User-Agent string")
	fs.StringVar(&snapshotDir, "snapshot-dir", "", "save every rendered page here (brotli)")
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shopscrape %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Printf("Search:\n")
			fmt.Printf("  Domain:            %s\n", cfg.Search.Domain)
			fmt.Printf("  Pages:             %d\n", cfg.Search.Pages)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:           %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Window:            %dx%d\n", cfg.Browser.WindowWidth, cfg.Browser.WindowHeight)
			fmt.Printf("  Render Timeout:    %s\n", cfg.Browser.RenderTimeout)
			fmt.Printf("  User Agent:        %s\n", cfg.Browser.UserAgent)
			fmt.Printf("\nPacing:\n")
			fmt.Printf("  Navigation:        %s - %s\n", cfg.Pacing.NavDelayMin, cfg.Pacing.NavDelayMax)
			fmt.Printf("  Scroll:            %s - %s\n", cfg.Pacing.ScrollDelayMin, cfg.Pacing.ScrollDelayMax)
			fmt.Printf("  Between Pages:     %s - %s\n", cfg.Pacing.PageDelayMin, cfg.Pacing.PageDelayMax)
			fmt.Printf("\nSelectors:\n")
			fmt.Printf("  Card:              %s\n", cfg.Selectors.Card)
			fmt.Printf("  Reviews:           %s\n", cfg.Selectors.Reviews)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("  Extra Formats:     %v\n", cfg.Storage.ExtraFormats)
			fmt.Printf("  MongoDB:           %v\n", cfg.Storage.Mongo.URI != "")
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// loadConfig reads the config file and environment, applies flags that
// were set explicitly and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cmd.Flags(), cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides copies changed flag values onto the config so that
// unset flags never mask file or environment settings.
func applyCLIOverrides(fs *pflag.FlagSet, cfg *config.Config) {
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("pages") {
		cfg.Search.Pages = pages
	}
	if changed("domain") {
		cfg.Search.Domain = strings.TrimRight(domain, "/")
	}
	if changed("headless") {
		cfg.Browser.Headless = headless
	}
	if changed("user-agent") {
		cfg.Browser.UserAgent = userAgent
	}
	if changed("out") {
		cfg.Storage.OutputPath = outputPath
	}
	if changed("format") {
		cfg.Storage.ExtraFormats = nil
		for _, f := range extraFormats {
			cfg.Storage.ExtraFormats = append(cfg.Storage.ExtraFormats, strings.ToLower(strings.TrimSpace(f)))
		}
	}
	if changed("reviews-selector") {
		cfg.Selectors.Reviews = reviewsSelector
	}
	if changed("snapshot-dir") {
		cfg.Snapshot.Dir = snapshotDir
	}
	if changed("mongo-uri") {
		cfg.Storage.Mongo.URI = mongoURI
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}

// setupLogger creates a structured logger.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
