package fetcher

import (
	"context"
)

// Session is a live browser handle that returns rendered markup.
type Session interface {
	// Render navigates to url, scrolls to trigger lazy content and returns
	// the resulting HTML.
	Render(ctx context.Context, url string) (string, error)

	// Close releases the browser. It is safe to call more than once.
	Close() error
}

// Provider opens a ready-to-use Session. Callers own the returned session
// and must Close it.
type Provider func(ctx context.Context) (Session, error)
