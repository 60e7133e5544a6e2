package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SearchRequest identifies one results page of a search query.
type SearchRequest struct {
	// Domain is the marketplace base URL, e.g. "https://www.amazon.in".
	Domain string

	// Query is the free-text search term.
	Query string

	// Page is 1-based.
	Page int
}

// NewSearchRequests builds one request per page, 1..pages.
func NewSearchRequests(domain, query string, pages int) ([]SearchRequest, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrNoQuery
	}
	if pages < 1 {
		return nil, fmt.Errorf("pages must be >= 1, got %d", pages)
	}
	reqs := make([]SearchRequest, 0, pages)
	for n := 1; n <= pages; n++ {
		reqs = append(reqs, SearchRequest{Domain: domain, Query: query, Page: n})
	}
	return reqs, nil
}

// URL returns <domain>/s?k=<query>&page=<n> with the query form-encoded.
func (r SearchRequest) URL() string {
	return fmt.Sprintf("%s/s?k=%s&page=%d",
		strings.TrimRight(r.Domain, "/"), url.QueryEscape(r.Query), r.Page)
}

// Page is the rendered markup of one search request.
type Page struct {
	Request SearchRequest

	// HTML is the serialized DOM after scrolling.
	HTML string

	// RenderDuration is how long navigation plus scrolling took.
	RenderDuration time.Duration

	RenderedAt time.Time
}

// NewPage wraps rendered markup.
func NewPage(req SearchRequest, html string, duration time.Duration) *Page {
	return &Page{
		Request:        req,
		HTML:           html,
		RenderDuration: duration,
		RenderedAt:     time.Now(),
	}
}
