package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/shopscrape/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func products(asins ...string) []types.Product {
	out := make([]types.Product, len(asins))
	for i, a := range asins {
		out[i] = types.Product{ASIN: a, Title: "title-" + a + "-" + string(rune('a'+i))}
	}
	return out
}

func asins(ps []types.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ASIN
	}
	return out
}

func TestAggregateDedupFirstWins(t *testing.T) {
	in := products("B1", "B2", "", "B1", "B3", "B2")
	got := Aggregate(in)

	if want := []string{"B1", "B2", "B3"}; !cmp.Equal(asins(got), want) {
		t.Fatalf("asins = %v, want %v", asins(got), want)
	}
	if got[0].Title != in[0].Title || got[1].Title != in[1].Title {
		t.Errorf("first occurrence should win: %+v", got)
	}
	if len(got) > len(in) {
		t.Errorf("output longer than input")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	in := products("X", "Y", "X", "", "Z", "Y", "W")
	once := Aggregate(in)
	twice := Aggregate(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("aggregate is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestAggregateOrderPreserved(t *testing.T) {
	in := products("C", "A", "C", "B", "A")
	got := asins(Aggregate(in))
	if want := []string{"C", "A", "B"}; !cmp.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if got := Aggregate(products("", "")); len(got) != 0 {
		t.Errorf("empty identifiers must be dropped, got %v", got)
	}
}

func TestAggregateCrossPage(t *testing.T) {
	page1 := []types.Product{{ASIN: "B000ABC", Title: "first page", Price: "10"}}
	page2 := []types.Product{{ASIN: "B000ABC", Title: "second page", Price: "12"}}

	got := Aggregate(append(page1, page2...))
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0] != page1[0] {
		t.Errorf("expected first page's record, got %+v", got[0])
	}
}

func TestAggregatorPipelineMatchesAggregate(t *testing.T) {
	in := products("B1", "", "B2", "B1", "B3")
	got, dropped, err := NewAggregator(testLogger).Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff(Aggregate(in), got); diff != "" {
		t.Errorf("pipeline output differs from Aggregate (-want +got):\n%s", diff)
	}
	if dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	in := []types.Product{{ASIN: " B1 ", Title: "  padded  "}}
	got, _, err := NewAggregator(testLogger).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ASIN != "B1" || got[0].Title != "padded" {
		t.Errorf("expected trimmed output, got %+v", got[0])
	}
	if in[0].Title != "  padded  " {
		t.Errorf("input was mutated: %+v", in[0])
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "fail" }

func (failingMiddleware) Process(*types.Product) (*types.Product, error) {
	return nil, errors.New("boom")
}

func TestPipelineError(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, _, err := p.Run(products("B1"))
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "fail" || pe.ASIN != "B1" {
		t.Errorf("unexpected error fields: %+v", pe)
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{Fields: []string{"asin", "price"}}

	ok := &types.Product{ASIN: "B1", Price: "9"}
	if result, _ := m.Process(ok); result == nil {
		t.Error("product with required fields should pass")
	}

	missing := &types.Product{ASIN: "B1"}
	if result, _ := m.Process(missing); result != nil {
		t.Error("product missing price should be dropped")
	}
}
