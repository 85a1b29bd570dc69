package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jpalmerr/ecobeestatus/internal/httpclient"
)

// HTTPSession is a [Session] that fetches pages over plain HTTP.
//
// It does not execute scripts, so it only sees server-rendered content.
// The fetched markup is reduced to its visible text, so inline tags such as
// <b> do not split a phrase. Non-2xx responses are treated as navigation
// errors.
type HTTPSession struct {
	client  *httpclient.Client
	timeout time.Duration

	mu     sync.Mutex
	page   string
	closed bool
}

// NewHTTPSession creates an [HTTPSession] using client. timeout bounds each
// navigation; zero means 15s.
func NewHTTPSession(client *httpclient.Client, timeout time.Duration) *HTTPSession {
	if timeout <= 0 {
		timeout = DefaultNavigateTimeout
	}
	return &HTTPSession{client: client, timeout: timeout}
}

// Navigate fetches url and keeps the visible text of its body as the
// current page.
func (s *HTTPSession) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	resp := s.client.Do(ctx, httpclient.Request{
		Path:    url,
		Headers: map[string]string{"Accept": "text/html"},
		Timeout: s.timeout,
	})
	if resp.Error != nil {
		return fmt.Errorf("navigate to %s: %w", url, resp.Error)
	}
	if !resp.OK() {
		return fmt.Errorf("navigate to %s: unexpected status %d", url, resp.StatusCode)
	}

	s.mu.Lock()
	s.page = visibleText(string(resp.Body))
	s.mu.Unlock()
	return nil
}

// RenderedText returns the text of the last successful navigation.
func (s *HTTPSession) RenderedText(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	return s.page, nil
}

// Close releases idle connections. Safe to call multiple times.
func (s *HTTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.page = ""
	s.client.Close()
	return nil
}
