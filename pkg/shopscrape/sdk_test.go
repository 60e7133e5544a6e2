package shopscrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/shopscrape/internal/config"
)

const page = `<html><body>
<div data-asin="B000ABC" data-component-type="s-search-result">
  <h2><a class="a-link-normal a-text-normal" href="/dp/B000ABC"><span>Cable</span></a></h2>
  <img class="s-image" src="https://m.media-amazon.com/images/I/cable.jpg">
  <span class="a-price"><span class="a-price-whole">19</span><span class="a-price-fraction">99</span></span>
  <i><span class="a-icon-alt">4.5 out of 5 stars</span></i>
  <span class="a-size-base">1,234</span>
</div>
<div data-asin="" data-component-type="s-search-result"><h2><a href="/x">sponsored</a></h2></div>
</body></html>`

func TestExtractAggregateExport(t *testing.T) {
	products := Aggregate(append(Extract(page, "https://www.amazon.in"), Extract(page, "https://www.amazon.in")...))
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	p := products[0]
	if p.Link != "https://www.amazon.in/dp/B000ABC" || p.Price != "19.99" || p.Reviews != "1,234" {
		t.Errorf("unexpected product: %+v", p)
	}

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := Export(products, out); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "asin,title,link,image,price,rating,reviews\n") {
		t.Errorf("unexpected header: %q", raw)
	}
}

type staticSession struct{ closed bool }

func (s *staticSession) Render(context.Context, string) (string, error) { return page, nil }
func (s *staticSession) Close() error { s.closed = true; return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearchWithCustomSession(t *testing.T) {
	sess := &staticSession{}
	dir := t.TempDir()
	out := filepath.Join(dir, "results.csv")

	cfg := config.DefaultConfig()
	cfg.Pacing = config.PacingConfig{}

	s := New(
		WithConfig(cfg),
		WithPages(2),
		WithOutput(out),
		WithExtraFormats("jsonl"),
		WithSnapshots(filepath.Join(dir, "pages")),
		WithLogger(quietLogger()),
		WithSession(func(context.Context) (Session, error) { return sess, nil }),
	)

	res, err := s.Search(context.Background(), "usb cable")
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages != 2 || res.Extracted != 2 || len(res.Products) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if !sess.closed {
		t.Error("session not closed")
	}
	for _, name := range []string{"results.csv", "results.jsonl", "pages/page-001.html.br", "pages/page-002.html.br"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestSearchRejectsInvalidConfig(t *testing.T) {
	s := New(WithPages(0), WithLogger(quietLogger()),
		WithSession(func(context.Context) (Session, error) {
			return nil, errors.New("must not be called")
		}))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := s.Search(ctx, "q"); err == nil {
		t.Fatal("expected validation error")
	}
}
