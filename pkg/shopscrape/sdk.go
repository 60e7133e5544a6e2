// Package shopscrape exposes the search-results scraper as a library.
//
// Example usage:
//
//	s := shopscrape.New(
//	    shopscrape.WithPages(2),
//	    shopscrape.WithHeadless(true),
//	    shopscrape.WithOutput("results.csv"),
//	)
//	res, err := s.Search(ctx, "usb c cable")
//
// Extract, Aggregate and Export work without a browser:
//
//	products := shopscrape.Aggregate(shopscrape.Extract(html, "https://www.amazon.in"))
//	err := shopscrape.Export(products, "results.csv")
package shopscrape

import (
	"context"
	"log/slog"
	"os"

	"github.com/IshaanNene/shopscrape/internal/config"
	"github.com/IshaanNene/shopscrape/internal/engine"
	"github.com/IshaanNene/shopscrape/internal/fetcher"
	"github.com/IshaanNene/shopscrape/internal/parser"
	"github.com/IshaanNene/shopscrape/internal/pipeline"
	"github.com/IshaanNene/shopscrape/internal/snapshot"
	"github.com/IshaanNene/shopscrape/internal/storage"
	"github.com/IshaanNene/shopscrape/internal/types"
)

// Product is one extracted search result.
type Product = types.Product

// Result summarizes a finished search.
type Result = engine.Result

// Session renders pages for a Scraper. See WithSession.
type Session = fetcher.Session

// Scraper is the high-level API for running searches from Go code.
type Scraper struct {
	cfg     *config.Config
	logger  *slog.Logger
	session func(ctx context.Context) (Session, error)
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithDomain sets the marketplace base domain.
func WithDomain(domain string) Option {
	return func(s *Scraper) { s.cfg.Search.Domain = domain }
}

// WithPages sets how many result pages are scraped.
func WithPages(n int) Option {
	return func(s *Scraper) { s.cfg.Search.Pages = n }
}

// WithHeadless toggles headless browsing.
func WithHeadless(headless bool) Option {
	return func(s *Scraper) { s.cfg.Browser.Headless = headless }
}

// WithUserAgent sets the browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) { s.cfg.Browser.UserAgent = ua }
}

// WithOutput sets the CSV output path.
func WithOutput(path string) Option {
	return func(s *Scraper) { s.cfg.Storage.OutputPath = path }
}

// WithExtraFormats also writes json and/or jsonl next to the CSV.
func WithExtraFormats(formats ...string) Option {
	return func(s *Scraper) { s.cfg.Storage.ExtraFormats = formats }
}

// WithSnapshots saves every rendered page to dir.
func WithSnapshots(dir string) Option {
	return func(s *Scraper) { s.cfg.Snapshot.Dir = dir }
}

// WithReviewsSelector overrides the review count selector.
func WithReviewsSelector(sel string) Option {
	return func(s *Scraper) { s.cfg.Selectors.Reviews = sel }
}

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg *config.Config) Option {
	return func(s *Scraper) { s.cfg = cfg }
}

// WithLogger sets the logger. The default logs at info level to stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) { s.logger = logger }
}

// WithSession replaces the browser with a custom Session source.
func WithSession(open func(ctx context.Context) (Session, error)) Option {
	return func(s *Scraper) { s.session = open }
}

// New creates a Scraper with the given options.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search scrapes the configured pages for query and writes the output.
// Each call launches and releases its own browser. Storage (CSV, extra
// formats, MongoDB) and snapshot settings apply as in the CLI; the metrics
// server is CLI only, since a library should not bind a port on its own.
func (s *Scraper) Search(ctx context.Context, query string) (*Result, error) {
	if err := config.Validate(s.cfg); err != nil {
		return nil, err
	}

	eng := engine.New(s.cfg, s.logger)

	pacer := fetcher.NewPacer()
	eng.SetPacer(pacer)
	if s.session != nil {
		eng.SetProvider(fetcher.Provider(s.session))
	} else {
		eng.SetProvider(fetcher.RodProvider(s.cfg, pacer, s.logger))
	}

	if s.cfg.Snapshot.Dir != "" {
		w, err := snapshot.NewWriter(s.cfg.Snapshot.Dir, s.logger)
		if err != nil {
			return nil, err
		}
		eng.SetSnapshots(w)
	}

	cfg, logger := s.cfg.Storage, s.logger
	eng.SetStorage(func(ctx context.Context) (storage.Storage, error) {
		return storage.Open(ctx, cfg, logger)
	})

	return eng.Run(ctx, query)
}

// Extract maps every result card in html to a Product using the default
// selectors. Relative links are resolved against baseDomain.
func Extract(html, baseDomain string) []Product {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return parser.NewExtractor(config.DefaultSelectors(), logger).Extract(html, baseDomain)
}

// Aggregate drops products without an ASIN and repeated ASINs, keeping the
// first occurrence and the original order.
func Aggregate(products []Product) []Product {
	return pipeline.Aggregate(products)
}

// Export writes products to path as CSV, replacing any existing file.
func Export(products []Product, path string) error {
	return storage.Export(products, path)
}
