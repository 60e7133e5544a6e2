package pipeline

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/shopscrape/internal/types"
)

// Middleware processes a product and returns the (possibly modified) product.
// Return nil to drop the product from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a product. Return nil to drop it.
	Process(p *types.Product) (*types.Product, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs a copy of the product through all middleware in order.
func (p *Pipeline) Process(product types.Product) (*types.Product, error) {
	current := &product

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				ASIN:  current.ASIN,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("product dropped", "stage", mw.Name(), "asin", product.ASIN)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Run processes products in order and returns the survivors plus the
// number dropped.
func (p *Pipeline) Run(products []types.Product) ([]types.Product, int, error) {
	out := make([]types.Product, 0, len(products))
	dropped := 0
	for _, product := range products {
		result, err := p.Process(product)
		if err != nil {
			return nil, dropped, err
		}
		if result == nil {
			dropped++
			continue
		}
		out = append(out, *result)
	}
	return out, dropped, nil
}

// Aggregate keeps the first product for every non-empty ASIN, preserving
// input order. It is idempotent: Aggregate(Aggregate(x)) == Aggregate(x).
func Aggregate(products []types.Product) []types.Product {
	seen := make(map[string]struct{}, len(products))
	out := make([]types.Product, 0, len(products))
	for _, p := range products {
		if p.ASIN == "" {
			continue
		}
		if _, ok := seen[p.ASIN]; ok {
			continue
		}
		seen[p.ASIN] = struct{}{}
		out = append(out, p)
	}
	return out
}

// NewAggregator returns the default chain: trim, require ASIN, dedup by ASIN.
// Unlike Aggregate it also trims stray whitespace from every field.
func NewAggregator(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	p.Use(&RequiredFieldsMiddleware{Fields: []string{"asin"}})
	p.Use(NewDedupMiddleware("asin"))
	return p
}

// --- Built-in Middleware ---

// RequiredFieldsMiddleware drops products with an empty required field.
type RequiredFieldsMiddleware struct {
	Fields []string
}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(p *types.Product) (*types.Product, error) {
	for _, field := range m.Fields {
		if p.Get(field) == "" {
			return nil, nil
		}
	}
	return p, nil
}

// DedupMiddleware drops products whose key field was already seen.
// It keeps state across calls, so use one instance per run.
type DedupMiddleware struct {
	seen map[string]struct{}
	key  string
}

func NewDedupMiddleware(key string) *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
		key:  key,
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(p *types.Product) (*types.Product, error) {
	val := p.Get(m.key)
	if _, exists := m.seen[val]; exists {
		return nil, nil
	}
	m.seen[val] = struct{}{}
	return p, nil
}

// TrimMiddleware trims whitespace from all string fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(p *types.Product) (*types.Product, error) {
	p.ASIN = strings.TrimSpace(p.ASIN)
	p.Title = strings.TrimSpace(p.Title)
	p.Link = strings.TrimSpace(p.Link)
	p.Image = strings.TrimSpace(p.Image)
	p.Price = strings.TrimSpace(p.Price)
	p.Rating = strings.TrimSpace(p.Rating)
	p.Reviews = strings.TrimSpace(p.Reviews)
	return p, nil
}
