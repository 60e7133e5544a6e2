package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/shopscrape/internal/config"
	"github.com/IshaanNene/shopscrape/internal/fetcher"
	"github.com/IshaanNene/shopscrape/internal/observability"
	"github.com/IshaanNene/shopscrape/internal/parser"
	"github.com/IshaanNene/shopscrape/internal/pipeline"
	"github.com/IshaanNene/shopscrape/internal/snapshot"
	"github.com/IshaanNene/shopscrape/internal/storage"
	"github.com/IshaanNene/shopscrape/internal/types"
)

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
	StateStopped State = 2
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Pacer waits a random duration within a range.
type Pacer interface {
	Sleep(ctx context.Context, lo, hi time.Duration) error
}

// StorageOpener creates the export sink. It is only called once every page
// has been collected, so an aborted run never touches the output.
type StorageOpener func(ctx context.Context) (storage.Storage, error)

// Result summarizes a finished run.
type Result struct {
	Query     string
	Pages     int
	Extracted int
	Dropped   int
	Products  []types.Product
	Elapsed   time.Duration
}

// Engine renders search pages one at a time, extracts products, dedups
// them and exports the result.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	provider  fetcher.Provider
	parser    parser.Parser
	pacer     Pacer
	open      StorageOpener
	snapshots *snapshot.Writer
	metrics   *observability.Metrics

	state atomic.Int32
	mu    sync.RWMutex
}

// New creates an Engine with the default extractor and a clock-seeded pacer.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.With("component", "engine"),
		parser:  parser.NewExtractor(cfg.Selectors, logger),
		pacer:   fetcher.NewPacer(),
		metrics: observability.NewMetrics(logger),
	}
}

// SetProvider sets how the render session is obtained.
func (e *Engine) SetProvider(p fetcher.Provider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.provider = p
}

// SetParser sets the parser implementation.
func (e *Engine) SetParser(p parser.Parser) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parser = p
}

// SetPacer replaces the inter-page pacer.
func (e *Engine) SetPacer(p Pacer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pacer = p
}

// SetStorage sets the opener for the export sink.
func (e *Engine) SetStorage(open StorageOpener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = open
}

// SetSnapshots enables saving every rendered page.
func (e *Engine) SetSnapshots(w *snapshot.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshots = w
}

// Metrics returns the run counters.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run scrapes cfg.Search.Pages result pages for query and exports the
// deduplicated products. Pages are processed strictly in order. Any render
// failure aborts the run; the session is released exactly once either way.
func (e *Engine) Run(ctx context.Context, query string) (*Result, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, fmt.Errorf("engine is in state %s, cannot run", e.State())
	}
	defer e.state.Store(int32(StateStopped))

	e.mu.RLock()
	provider, open := e.provider, e.open
	e.mu.RUnlock()
	if provider == nil {
		return nil, fmt.Errorf("no session provider configured")
	}
	if open == nil {
		return nil, fmt.Errorf("no storage configured")
	}

	reqs, err := types.NewSearchRequests(e.cfg.Search.Domain, query, e.cfg.Search.Pages)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	e.logger.Info("run starting",
		"query", query,
		"pages", len(reqs),
		"domain", e.cfg.Search.Domain,
	)

	all, err := e.collect(ctx, provider, reqs)
	if err != nil {
		return nil, err
	}

	products, dropped, err := pipeline.NewAggregator(e.logger).Run(all)
	if err != nil {
		return nil, err
	}
	e.metrics.DuplicatesDropped.Add(int64(dropped))

	if err := e.export(ctx, open, products); err != nil {
		return nil, err
	}

	res := &Result{
		Query:     query,
		Pages:     len(reqs),
		Extracted: len(all),
		Dropped:   dropped,
		Products:  products,
		Elapsed:   time.Since(start),
	}
	e.logger.Info("run complete",
		"pages", res.Pages,
		"extracted", res.Extracted,
		"unique", len(res.Products),
		"dropped", res.Dropped,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// collect renders and parses every page inside a single session.
func (e *Engine) collect(ctx context.Context, provider fetcher.Provider, reqs []types.SearchRequest) ([]types.Product, error) {
	session, err := provider(ctx)
	if err != nil {
		return nil, &types.SessionError{Err: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			e.logger.Warn("session close failed", "error", err)
		}
	}()

	var all []types.Product
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := e.render(ctx, session, req)
		if err != nil {
			return nil, err
		}

		products := e.parse(page)
		all = append(all, products...)

		if i < len(reqs)-1 {
			if err := e.pacer.Sleep(ctx, e.cfg.Pacing.PageDelayMin, e.cfg.Pacing.PageDelayMax); err != nil {
				return nil, err
			}
		}
	}
	return all, nil
}

func (e *Engine) render(ctx context.Context, session fetcher.Session, req types.SearchRequest) (*types.Page, error) {
	url := req.URL()
	e.logger.Info("loading page", "page", req.Page, "url", url)
	e.metrics.PagesRequested.Add(1)

	start := time.Now()
	html, err := session.Render(ctx, url)
	if err != nil {
		e.metrics.PagesFailed.Add(1)
		return nil, &types.RenderError{URL: url, Page: req.Page, Err: err}
	}
	elapsed := time.Since(start)
	e.metrics.PagesRendered.Add(1)
	e.metrics.BytesRendered.Add(int64(len(html)))
	e.metrics.ObserveRender(elapsed)

	return types.NewPage(req, html, elapsed), nil
}

// parse saves, inspects and extracts one page. Nothing here aborts the run.
func (e *Engine) parse(page *types.Page) []types.Product {
	n := page.Request.Page

	e.mu.RLock()
	snaps, p := e.snapshots, e.parser
	e.mu.RUnlock()

	if snaps != nil {
		if _, err := snaps.Save(n, page.HTML); err != nil {
			e.logger.Warn("snapshot failed", "page", n, "error", err)
		}
	}

	info, err := parser.Inspect(page.HTML)
	if err != nil {
		e.logger.Warn("page inspection failed", "page", n, "error", err)
	} else {
		e.metrics.CardsSeen.Add(int64(info.CardCount))
		if info.Captcha {
			e.metrics.CaptchaPages.Add(1)
			e.logger.Warn("robot check served instead of results", "page", n, "title", info.Title)
		} else if info.CardCount == 0 {
			e.metrics.PagesEmpty.Add(1)
			e.logger.Warn("no result cards on page", "page", n, "title", info.Title)
		}
	}

	products := p.Extract(page.HTML, e.cfg.Search.Domain)
	e.metrics.ProductsExtracted.Add(int64(len(products)))

	e.logger.Info("page parsed",
		"page", n,
		"products", len(products),
		"cards", info.CardCount,
		"banner", info.ResultBanner,
		"render_duration", page.RenderDuration,
		"rendered_at", page.RenderedAt.Format(time.RFC3339),
	)
	return products
}

func (e *Engine) export(ctx context.Context, open StorageOpener, products []types.Product) error {
	store, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	storeErr := store.Store(products)
	closeErr := store.Close()
	if storeErr != nil {
		return storeErr
	}
	if closeErr != nil {
		return closeErr
	}

	e.metrics.ProductsExported.Add(int64(len(products)))
	e.logger.Info("products exported", "storage", store.Name(), "count", len(products))
	return nil
}
