package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoQuery       = errors.New("search query is empty")
	ErrSessionClosed = errors.New("session already closed")
)

// SessionError wraps a failure to acquire a render session.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("open session: %v", e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// RenderError wraps errors that occur while rendering a page.
type RenderError struct {
	URL  string
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error for page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the aggregation pipeline.
type PipelineError struct {
	Stage string
	ASIN  string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q (asin=%q): %v", e.Stage, e.ASIN, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
