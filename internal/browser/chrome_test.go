package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// chromePath returns an installed Chrome or Chromium binary, skipping the
// test when there is none.
func chromePath(t *testing.T) string {
	t.Helper()
	for _, name := range []string{
		"google-chrome",
		"google-chrome-stable",
		"chromium",
		"chromium-browser",
		"chrome",
	} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("chrome not installed")
	return ""
}

func newTestChrome(t *testing.T, ctx context.Context) *ChromeSession {
	t.Helper()
	s, err := NewChromeSession(ctx, ChromeOptions{
		Headless:        true,
		ExecPath:        chromePath(t),
		NoSandbox:       os.Geteuid() == 0,
		NavigateTimeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewChromeSession() error = %v", err)
	}
	return s
}

// TestChromeSession_OutlivesConstructorContext verifies that the browser
// keeps running after NewChromeSession returns and its ctx is cancelled.
func TestChromeSession_OutlivesConstructorContext(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div>All Systems <b>Operational</b></div>
<script>document.body.insertAdjacentHTML("beforeend", "<p>rendered</p>")</script></body></html>`))
	}))
	defer page.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := newTestChrome(t, ctx)
	cancel()

	if err := s.Navigate(context.Background(), page.URL); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	text, err := s.RenderedText(context.Background())
	if err != nil {
		t.Fatalf("RenderedText() error = %v", err)
	}
	if !strings.Contains(text, "All Systems Operational") {
		t.Errorf("RenderedText() = %q, want operational phrase", text)
	}
	if !strings.Contains(text, "rendered") {
		t.Errorf("RenderedText() = %q, want script output", text)
	}

	// a second cycle reuses the same tab
	if err := s.Navigate(context.Background(), page.URL); err != nil {
		t.Fatalf("second Navigate() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := s.Navigate(context.Background(), page.URL); !errors.Is(err, ErrClosed) {
		t.Errorf("Navigate() after Close error = %v, want ErrClosed", err)
	}
}

func TestChromeSession_NavigateHonoursCallerContext(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	defer page.Close()

	s := newTestChrome(t, context.Background())
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := s.Navigate(ctx, page.URL); err == nil {
		t.Fatal("Navigate() error = nil, want cancellation")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Navigate() took %v after its context expired", elapsed)
	}
}

func TestNewChromeSession_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewChromeSession(ctx, ChromeOptions{Headless: true})
	if s != nil {
		s.Close()
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("NewChromeSession() error = %v, want context.Canceled", err)
	}
}
