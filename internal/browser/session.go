package browser

import (
	"context"
	"errors"
)

// ErrClosed is returned by a [Session] after Close has been called.
var ErrClosed = errors.New("browser session closed")

// Session is a controllable page renderer.
//
// Navigate loads url and waits until the page is ready or the session's
// navigation ceiling is reached. RenderedText returns the text of the page
// most recently loaded. Close releases the underlying browser; it is
// idempotent.
type Session interface {
	Navigate(ctx context.Context, url string) error
	RenderedText(ctx context.Context) (string, error)
	Close() error
}

// Factory allocates a new [Session]. A failing Factory is fatal at startup.
type Factory func(ctx context.Context) (Session, error)
