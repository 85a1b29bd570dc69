package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/ecobeestatus/internal/browser"
	"github.com/jpalmerr/ecobeestatus/internal/httpclient"
	"github.com/jpalmerr/ecobeestatus/internal/hub"
)

// DefaultInterval is the wait between the end of one cycle and the start
// of the next.
const DefaultInterval = 10 * time.Minute

// ErrAlreadyStarted is returned by [Loop.Start] on any call after the first.
var ErrAlreadyStarted = errors.New("poll loop already started")

// State is a phase of the [Loop] lifecycle.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Checker reports whether the status page at url shows every system as
// operational. Implementations must not return errors; failures are false.
type Checker interface {
	Check(ctx context.Context, session browser.Session, url string) bool
}

// Publisher sends one observation to the hub.
type Publisher interface {
	Publish(ctx context.Context, token string, allOnline bool) hub.Result
}

// Settings is the immutable configuration of a [Loop].
type Settings struct {
	// StatusURL is the page checked each cycle.
	StatusURL string

	// Token is the hub bearer token passed to the publisher.
	Token string

	// Interval is the fixed delay between cycles. Zero uses DefaultInterval.
	Interval time.Duration
}

// Deps are the collaborators and resources a [Loop] uses.
type Deps struct {
	// NewSession allocates the browser session at start.
	NewSession browser.Factory

	Checker   Checker
	Publisher Publisher

	// Client is the hub client; its idle connections are released when
	// the loop stops. May be nil.
	Client *httpclient.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// CycleResult holds the outcome of one poll cycle.
type CycleResult struct {
	// ID correlates the cycle's log lines.
	ID string

	// AllOnline is the observation produced by the checker.
	AllOnline bool

	// CheckedAt is when the check finished.
	CheckedAt time.Time

	// Publish is the outcome of the single publish attempt.
	Publish hub.Result

	// Duration covers the check and the publish.
	Duration time.Duration
}

// Loop is the poll loop. Create it with [New], run it with [Loop.Start]
// and stop it with [Loop.Stop] or by cancelling the context passed to Start.
//
// A Loop serves one lifetime: it cannot be restarted once stopped.
type Loop struct {
	settings Settings
	deps     Deps
	logger   *slog.Logger
	results  chan CycleResult
	done     chan struct{}

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	session  browser.Session
	stopOnce sync.Once
}

// New creates a [Loop] in the idle state.
func New(settings Settings, deps Deps) *Loop {
	if settings.Interval <= 0 {
		settings.Interval = DefaultInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		settings: settings,
		deps:     deps,
		logger:   logger,
		results:  make(chan CycleResult, 1),
		done:     make(chan struct{}),
	}
}

// Results returns a channel that receives one [CycleResult] per cycle.
//
// Sends are non-blocking: if the previous result has not been consumed,
// the new one is dropped so a slow consumer never delays the loop. The
// channel is closed once the loop has stopped.
func (l *Loop) Results() <-chan CycleResult {
	return l.results
}

// Done is closed once the loop has reached the stopped state.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Start allocates the browser session and begins polling in a background
// goroutine. The first cycle runs immediately.
//
// Start returns an error if the session cannot be allocated; the loop is
// then stopped. Cancelling ctx stops the loop. Calling Start more than once,
// or after Stop, returns [ErrAlreadyStarted].
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.state = StateStarting
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	l.logger.Info("starting ecobee status monitor",
		"status_url", l.settings.StatusURL,
		"interval", l.settings.Interval.String(),
	)

	session, err := l.deps.NewSession(runCtx)
	if err != nil {
		cancel()
		l.shutdown()
		return fmt.Errorf("failed to start browser session: %w", err)
	}

	l.mu.Lock()
	l.session = session
	l.state = StateRunning
	l.mu.Unlock()

	go l.run(runCtx)
	return nil
}

// Stop requests shutdown and blocks until the loop has stopped. The interval
// wait is cut short and an in-flight page load is cancelled; a check
// interrupted this way is not published. A hub request already under way
// runs to completion, bounded by the publisher's timeout, so Stop never
// leaves the sensor half-written.
//
// Stop is idempotent. Calling Stop before Start moves the loop straight to
// the stopped state.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.state == StateIdle {
		l.state = StateStopping
		l.mu.Unlock()
		l.shutdown()
		return
	}
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-l.done
}

func (l *Loop) run(ctx context.Context) {
	defer l.shutdown()

	for ctx.Err() == nil {
		l.runCycle(ctx)
		if !l.wait(ctx) {
			return
		}
	}
}

// wait sleeps for the interval. It returns false if ctx was cancelled first.
func (l *Loop) wait(ctx context.Context) bool {
	timer := time.NewTimer(l.settings.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// runCycle checks the status page and publishes the observation exactly once.
func (l *Loop) runCycle(ctx context.Context) {
	id := uuid.NewString()
	logger := l.logger.With("cycle_id", id)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("poll cycle panic",
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	logger.Info("checking ecobee status")

	allOnline := l.deps.Checker.Check(ctx, l.session, l.settings.StatusURL)
	checkedAt := time.Now()

	// a check cut short by shutdown is not an observation
	if ctx.Err() != nil {
		logger.Info("shutdown during check, state not published")
		return
	}

	// the publisher's own timeout bounds the request after shutdown
	published := l.deps.Publisher.Publish(context.WithoutCancel(ctx), l.settings.Token, allOnline)

	result := CycleResult{
		ID:        id,
		AllOnline: allOnline,
		CheckedAt: checkedAt,
		Publish:   published,
		Duration:  time.Since(start),
	}

	logger.Info("done checking ecobee status",
		"all_online", allOnline,
		"published", published.Err == nil,
		"duration_ms", result.Duration.Milliseconds(),
	)

	select {
	case l.results <- result:
	default:
		logger.Warn("cycle result dropped, consumer is not keeping up")
	}
}

// shutdown releases the session and client and marks the loop stopped.
// Only the first call has any effect.
func (l *Loop) shutdown() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		started := l.cancel != nil
		l.state = StateStopping
		session := l.session
		l.session = nil
		l.mu.Unlock()

		if started {
			l.logger.Info("stopping ecobee status monitor")
		}

		if session != nil {
			if err := session.Close(); err != nil {
				l.logger.Error("failed to close browser session", "error", err)
			}
		}
		l.deps.Client.Close()

		l.setState(StateStopped)
		close(l.results)
		close(l.done)
	})
}
