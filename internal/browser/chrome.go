package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	// DefaultNavigateTimeout bounds one page load and text read.
	DefaultNavigateTimeout = 15 * time.Second

	// DefaultWindowWidth and DefaultWindowHeight size the maximized viewport.
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
)

// ErrStartTimeout is returned by [NewChromeSession] when Chrome does not come
// up within the navigation timeout.
var ErrStartTimeout = errors.New("timed out waiting for chrome")

// renderedTextJS returns the visible text of the document, falling back to
// the raw markup when the page has no body yet.
const renderedTextJS = `document.body ? document.body.innerText : document.documentElement.outerHTML`

// ChromeOptions configures a [ChromeSession].
type ChromeOptions struct {
	// Headless runs Chrome without a window.
	Headless bool

	// ExecPath overrides the Chrome binary. Empty uses chromedp's lookup.
	ExecPath string

	// NoSandbox disables Chrome's sandbox, which refuses to start as root.
	NoSandbox bool

	// NavigateTimeout is the ceiling applied to each navigation and text
	// read. Defaults to 15s.
	NavigateTimeout time.Duration

	// WindowWidth and WindowHeight size the viewport. Defaults to 1920x1080.
	WindowWidth  int
	WindowHeight int
}

// ChromeSession is a [Session] backed by a single Chrome tab.
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration

	mu     sync.Mutex
	closed bool
}

// NewChromeSession launches Chrome and opens a tab.
//
// The browser lifetime is independent of ctx: ctx only bounds the launch
// itself. Call [ChromeSession.Close] to quit the browser. Returns an error
// if Chrome cannot be started.
func NewChromeSession(ctx context.Context, opts ChromeOptions) (*ChromeSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = DefaultNavigateTimeout
	}
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = DefaultWindowWidth
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = DefaultWindowHeight
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("start-maximized", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	// the first Run starts the browser and ties its lifetime to the
	// context it is given, so it gets the tab context itself; the launch
	// deadline is enforced here instead
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(opts.NavigateTimeout)
	defer timer.Stop()

	var startErr error
	select {
	case err := <-errc:
		if err != nil {
			startErr = fmt.Errorf("failed to start chrome: %w", err)
		}
	case <-timer.C:
		startErr = fmt.Errorf("failed to start chrome: %w", ErrStartTimeout)
	case <-ctx.Done():
		startErr = fmt.Errorf("failed to start chrome: %w", ctx.Err())
	}
	if startErr != nil {
		cancel()
		allocCancel()
		return nil, startErr
	}

	return &ChromeSession{
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     opts.NavigateTimeout,
	}, nil
}

// runCtx derives a context from the tab that is cancelled by either the
// navigation ceiling or the caller's ctx.
func (s *ChromeSession) runCtx(ctx context.Context) (context.Context, func(), error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, nil, ErrClosed
	}

	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}, nil
}

// Navigate loads url and waits for the document body to be ready.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, done, err := s.runCtx(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// RenderedText returns the inner text of the current page.
func (s *ChromeSession) RenderedText(ctx context.Context) (string, error) {
	runCtx, done, err := s.runCtx(ctx)
	if err != nil {
		return "", err
	}
	defer done()

	var text string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(renderedTextJS, &text)); err != nil {
		return "", fmt.Errorf("read page text: %w", err)
	}
	return text, nil
}

// Close quits the browser. Safe to call multiple times.
func (s *ChromeSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Cancel asks chrome to shut down gracefully; allocCancel kills the
	// process and removes the temporary profile if that did not work
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	if err != nil && err != context.Canceled {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}
