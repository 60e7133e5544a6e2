package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operational counters for a scrape run.
type Metrics struct {
	// Page metrics
	PagesRequested atomic.Int64
	PagesRendered  atomic.Int64
	PagesFailed    atomic.Int64
	PagesEmpty     atomic.Int64
	CaptchaPages   atomic.Int64

	// Product metrics
	CardsSeen         atomic.Int64
	ProductsExtracted atomic.Int64
	DuplicatesDropped atomic.Int64
	ProductsExported  atomic.Int64

	BytesRendered atomic.Int64

	renderSeconds prometheus.Histogram
	registry      *prometheus.Registry
	logger        *slog.Logger
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logger:   logger.With("component", "metrics"),
	}

	m.renderSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopscrape_page_render_seconds",
		Help:    "Time taken to render a result page, pauses included",
		Buckets: []float64{1, 2.5, 5, 7.5, 10, 15, 20, 30, 45, 60},
	})
	m.registry.MustRegister(m.renderSeconds)

	counters := []struct {
		name  string
		help  string
		value *atomic.Int64
	}{
		{"shopscrape_pages_requested_total", "Result pages requested", &m.PagesRequested},
		{"shopscrape_pages_rendered_total", "Result pages rendered", &m.PagesRendered},
		{"shopscrape_pages_failed_total", "Result pages that failed to render", &m.PagesFailed},
		{"shopscrape_pages_empty_total", "Rendered pages without result cards", &m.PagesEmpty},
		{"shopscrape_captcha_pages_total", "Rendered pages that were robot checks", &m.CaptchaPages},
		{"shopscrape_cards_seen_total", "Result cards seen", &m.CardsSeen},
		{"shopscrape_products_extracted_total", "Products extracted before dedup", &m.ProductsExtracted},
		{"shopscrape_duplicates_dropped_total", "Products dropped by aggregation", &m.DuplicatesDropped},
		{"shopscrape_products_exported_total", "Products exported", &m.ProductsExported},
		{"shopscrape_bytes_rendered_total", "Bytes of rendered HTML", &m.BytesRendered},
	}
	for _, c := range counters {
		v := c.value
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(v.Load()) },
		))
	}

	return m
}

// ObserveRender records how long one page took to render.
func (m *Metrics) ObserveRender(d time.Duration) {
	m.renderSeconds.Observe(d.Seconds())
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return srv
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_requested":    m.PagesRequested.Load(),
		"pages_rendered":     m.PagesRendered.Load(),
		"pages_failed":       m.PagesFailed.Load(),
		"pages_empty":        m.PagesEmpty.Load(),
		"captcha_pages":      m.CaptchaPages.Load(),
		"cards_seen":         m.CardsSeen.Load(),
		"products_extracted": m.ProductsExtracted.Load(),
		"duplicates_dropped": m.DuplicatesDropped.Load(),
		"products_exported":  m.ProductsExported.Load(),
		"bytes_rendered":     m.BytesRendered.Load(),
	}
}
