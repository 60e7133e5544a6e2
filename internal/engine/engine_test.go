package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/shopscrape/internal/config"
	"github.com/IshaanNene/shopscrape/internal/fetcher"
	"github.com/IshaanNene/shopscrape/internal/snapshot"
	"github.com/IshaanNene/shopscrape/internal/storage"
	"github.com/IshaanNene/shopscrape/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeSession serves canned markup keyed by URL.
type fakeSession struct {
	pages    map[string]string
	failOn   string
	rendered []string
	closes   int
}

func (s *fakeSession) Render(_ context.Context, url string) (string, error) {
	s.rendered = append(s.rendered, url)
	if url == s.failOn {
		return "", errors.New("navigation timeout")
	}
	return s.pages[url], nil
}

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}

func provide(s *fakeSession) fetcher.Provider {
	return func(context.Context) (fetcher.Session, error) { return s, nil }
}

func cardHTML(asin, title string) string {
	return fmt.Sprintf(`<html><body><div data-asin=%q data-component-type="s-search-result">
<h2><a class="a-link-normal a-text-normal" href="/dp/%s">%s</a></h2>
<span class="a-price"><span class="a-price-whole">10</span><span class="a-price-fraction">50</span></span>
</div></body></html>`, asin, asin, title)
}

func testConfig(t *testing.T, pages int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Search.Pages = pages
	cfg.Pacing = config.PacingConfig{}
	cfg.Storage.OutputPath = filepath.Join(t.TempDir(), "results.csv")
	return cfg
}

func newTestEngine(cfg *config.Config, s *fakeSession) (*Engine, *int) {
	opened := 0
	e := New(cfg, testLogger)
	e.SetProvider(provide(s))
	e.SetStorage(func(context.Context) (storage.Storage, error) {
		opened++
		return storage.NewCSVStorage(cfg.Storage.OutputPath, testLogger), nil
	})
	return e, &opened
}

func pageURL(cfg *config.Config, query string, n int) string {
	return types.SearchRequest{Domain: cfg.Search.Domain, Query: query, Page: n}.URL()
}

func TestRunDedupAcrossPages(t *testing.T) {
	cfg := testConfig(t, 2)
	s := &fakeSession{pages: map[string]string{
		pageURL(cfg, "usb cable", 1): cardHTML("B000ABC", "First"),
		pageURL(cfg, "usb cable", 2): cardHTML("B000ABC", "Second"),
	}}
	e, _ := newTestEngine(cfg, s)

	res, err := e.Run(context.Background(), "usb cable")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Extracted != 2 || len(res.Products) != 1 || res.Dropped != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Products[0].Title != "First" {
		t.Errorf("first page should win, got %q", res.Products[0].Title)
	}
	if res.Products[0].Link != "https://www.amazon.in/dp/B000ABC" || res.Products[0].Price != "10.50" {
		t.Errorf("unexpected record: %+v", res.Products[0])
	}

	raw, err := os.ReadFile(cfg.Storage.OutputPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected header + 1 row, got %d lines", len(lines))
	}

	if s.closes != 1 {
		t.Errorf("session closed %d times, want 1", s.closes)
	}
	if e.State() != StateStopped {
		t.Errorf("state = %s", e.State())
	}
}

func TestRunRequestsPagesInOrder(t *testing.T) {
	cfg := testConfig(t, 3)
	s := &fakeSession{pages: map[string]string{}}
	e, _ := newTestEngine(cfg, s)

	if _, err := e.Run(context.Background(), "gaming mouse"); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{
		"https://www.amazon.in/s?k=gaming+mouse&page=1",
		"https://www.amazon.in/s?k=gaming+mouse&page=2",
		"https://www.amazon.in/s?k=gaming+mouse&page=3",
	}
	if strings.Join(s.rendered, " ") != strings.Join(want, " ") {
		t.Errorf("rendered %v, want %v", s.rendered, want)
	}
	if got := e.Metrics().Snapshot()["pages_empty"]; got != 3 {
		t.Errorf("pages_empty = %d, want 3", got)
	}
}

func TestRunRenderFailureReleasesSession(t *testing.T) {
	cfg := testConfig(t, 3)
	s := &fakeSession{
		pages:  map[string]string{pageURL(cfg, "q", 1): cardHTML("B1", "one")},
		failOn: pageURL(cfg, "q", 2),
	}
	e, opened := newTestEngine(cfg, s)

	_, err := e.Run(context.Background(), "q")
	var re *types.RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if re.Page != 2 {
		t.Errorf("failed page = %d, want 2", re.Page)
	}
	if len(s.rendered) != 2 {
		t.Errorf("pages after the failure must not be rendered: %v", s.rendered)
	}
	if s.closes != 1 {
		t.Errorf("session closed %d times, want 1", s.closes)
	}
	if *opened != 0 {
		t.Error("storage must not be opened after an aborted run")
	}
	if _, err := os.Stat(cfg.Storage.OutputPath); !os.IsNotExist(err) {
		t.Errorf("no output file expected, stat err = %v", err)
	}
}

func TestRunSessionFailure(t *testing.T) {
	cfg := testConfig(t, 1)
	e, opened := newTestEngine(cfg, nil)
	e.SetProvider(func(context.Context) (fetcher.Session, error) {
		return nil, errors.New("chromium not found")
	})

	_, err := e.Run(context.Background(), "q")
	var se *types.SessionError
	if !errors.As(err, &se) {
		t.Fatalf("expected SessionError, got %v", err)
	}
	if *opened != 0 {
		t.Error("storage must not be opened when the session fails")
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t, 2)
	s := &fakeSession{pages: map[string]string{}}
	e, _ := newTestEngine(cfg, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Run(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.closes != 1 {
		t.Errorf("session closed %d times, want 1", s.closes)
	}
}

func TestRunEmptyQuery(t *testing.T) {
	cfg := testConfig(t, 1)
	s := &fakeSession{}
	e, _ := newTestEngine(cfg, s)
	if _, err := e.Run(context.Background(), " "); !errors.Is(err, types.ErrNoQuery) {
		t.Fatalf("expected ErrNoQuery, got %v", err)
	}
	if s.closes != 0 {
		t.Error("no session should be opened for an empty query")
	}
}

func TestRunOnlyOnce(t *testing.T) {
	cfg := testConfig(t, 1)
	e, _ := newTestEngine(cfg, &fakeSession{pages: map[string]string{}})
	if _, err := e.Run(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(context.Background(), "q"); err == nil {
		t.Error("second Run on the same engine should fail")
	}
}

func TestRunSavesSnapshots(t *testing.T) {
	cfg := testConfig(t, 1)
	html := cardHTML("B9", "snap")
	s := &fakeSession{pages: map[string]string{pageURL(cfg, "q", 1): html}}
	e, _ := newTestEngine(cfg, s)

	w, err := snapshot.NewWriter(t.TempDir(), testLogger)
	if err != nil {
		t.Fatal(err)
	}
	e.SetSnapshots(w)

	if _, err := e.Run(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	got, err := snapshot.Load(w.Path(1))
	if err != nil {
		t.Fatalf("snapshot not saved: %v", err)
	}
	if got != html {
		t.Error("snapshot content differs from rendered page")
	}
}

type countingPacer struct{ calls int }

func (p *countingPacer) Sleep(context.Context, time.Duration, time.Duration) error {
	p.calls++
	return nil
}

func TestRunPacesBetweenPages(t *testing.T) {
	cfg := testConfig(t, 3)
	e, _ := newTestEngine(cfg, &fakeSession{pages: map[string]string{}})
	p := &countingPacer{}
	e.SetPacer(p)

	if _, err := e.Run(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	if p.calls != 2 {
		t.Errorf("expected 2 inter-page pauses, got %d", p.calls)
	}
}

func TestRunLogsRenderTimestamp(t *testing.T) {
	cfg := testConfig(t, 1)
	s := &fakeSession{pages: map[string]string{pageURL(cfg, "q", 1): cardHTML("B1", "one")}}

	var buf bytes.Buffer
	e := New(cfg, slog.New(slog.NewTextHandler(&buf, nil)))
	e.SetProvider(provide(s))
	e.SetStorage(func(context.Context) (storage.Storage, error) {
		return storage.NewCSVStorage(cfg.Storage.OutputPath, testLogger), nil
	})

	if _, err := e.Run(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "rendered_at=") {
		t.Errorf("page log line should carry the render timestamp:\n%s", buf.String())
	}
}
