package ecobeestatus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/ecobeestatus/dashboard"
	"github.com/jpalmerr/ecobeestatus/internal/browser"
	"github.com/jpalmerr/ecobeestatus/internal/httpclient"
	"github.com/jpalmerr/ecobeestatus/internal/hub"
	"github.com/jpalmerr/ecobeestatus/internal/poller"
	"github.com/jpalmerr/ecobeestatus/internal/server"
	"github.com/jpalmerr/ecobeestatus/internal/statuspage"
	"github.com/jpalmerr/ecobeestatus/internal/store"
)

const (
	// DefaultStatusURL is the status page checked when none is configured.
	DefaultStatusURL = "https://status.ecobee.com"

	// DefaultPollingInterval is the wait between cycles.
	DefaultPollingInterval = poller.DefaultInterval

	// DefaultPageTimeout bounds loading and reading the status page.
	DefaultPageTimeout = browser.DefaultNavigateTimeout

	// DefaultPublishTimeout bounds one hub request.
	DefaultPublishTimeout = hub.DefaultTimeout
)

// ErrAlreadyStarted is returned by [Monitor.Start] on any call after the first.
var ErrAlreadyStarted = errors.New("monitor already started")

// Monitor checks the status page on a fixed delay and relays the result to
// the hub sensor. It is created with [New] and run with [Monitor.Start].
//
// The typical lifecycle is:
//
//	m, err := ecobeestatus.New(
//	    ecobeestatus.WithHubURL("http://homeassistant.local:8123"),
//	    ecobeestatus.WithHubToken(os.Getenv("HA_TOKEN")),
//	)
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	if err := m.Start(ctx); err != nil { // blocks until ctx is cancelled
//	    os.Exit(1)
//	}
type Monitor struct {
	hubURL            string
	hubToken          string
	statusURL         string
	pollingInterval   time.Duration
	pageTimeout       time.Duration
	publishTimeout    time.Duration
	sensorEntity      string
	operationalPhrase string
	browser           BrowserOptions
	sessionFactory    SessionFactory
	port              int
	title             string
	logger            *slog.Logger
	callbacks         []func(Observation)

	store   *store.MemoryStore
	started atomic.Bool

	mu        sync.RWMutex
	latest    Observation
	hasLatest bool
}

// New creates a [Monitor] with the given options.
//
// [WithHubURL] and [WithHubToken] are required. Other options default to:
//   - Status page: https://status.ecobee.com
//   - Polling interval: 10 minutes
//   - Page timeout: 15 seconds
//   - Publish timeout: 30 seconds
//   - Browser: headless Chrome
//   - Status server: disabled
//
// Returns an error if a required option is missing or any option is invalid.
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		statusURL:       DefaultStatusURL,
		pollingInterval: DefaultPollingInterval,
		pageTimeout:     DefaultPageTimeout,
		publishTimeout:  DefaultPublishTimeout,
		sensorEntity:    hub.DefaultEntityID,
		browser:         BrowserOptions{Engine: EngineChrome, Headless: true},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.hubURL == "" {
		return nil, errors.New("hub url is required")
	}
	if cfg.hubToken == "" {
		return nil, errors.New("hub token is required")
	}
	if cfg.browser.Engine == "" {
		cfg.browser.Engine = EngineChrome
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		hubURL:            cfg.hubURL,
		hubToken:          cfg.hubToken,
		statusURL:         cfg.statusURL,
		pollingInterval:   cfg.pollingInterval,
		pageTimeout:       cfg.pageTimeout,
		publishTimeout:    cfg.publishTimeout,
		sensorEntity:      cfg.sensorEntity,
		operationalPhrase: cfg.operationalPhrase,
		browser:           cfg.browser,
		sessionFactory:    cfg.sessionFactory,
		port:              cfg.port,
		title:             cfg.title,
		logger:            logger,
		callbacks:         cfg.callbacks,
		store:             store.NewMemoryStore(),
	}, nil
}

// Start runs the poll loop until ctx is cancelled.
//
// The first cycle runs immediately. Each cycle checks the status page,
// publishes the result, then waits for the polling interval. Failures inside
// a cycle are logged and the loop carries on.
//
// Returns nil on graceful shutdown. Returns an error if the browser session
// or the status server cannot be started, or if Start was already called.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if ctx.Err() != nil {
		return nil
	}

	client, err := httpclient.New(m.hubURL)
	if err != nil {
		return fmt.Errorf("invalid hub url: %w", err)
	}

	loop := poller.New(
		poller.Settings{
			StatusURL: m.statusURL,
			Token:     m.hubToken,
			Interval:  m.pollingInterval,
		},
		poller.Deps{
			NewSession: m.newSession,
			Checker:    statuspage.NewChecker(m.operationalPhrase, m.logger),
			Publisher:  hub.NewPublisher(client, m.sensorEntity, m.publishTimeout, m.logger),
			Client:     client,
			Logger:     m.logger,
		},
	)

	serveCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	if m.port != 0 {
		srv := server.NewServer(m.store, m.port, dashboard.Assets, m.title, m.logger)
		if err := srv.Start(serveCtx); err != nil {
			client.Close()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		m.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", m.port))
	}

	if err := loop.Start(ctx); err != nil {
		return err
	}

	// results is closed once the loop has stopped and released its session
	for r := range loop.Results() {
		m.record(cycleToObservation(r))
	}

	m.logger.Info("ecobee status monitor stopped")
	return nil
}

// CheckOnce performs a single status check outside the loop. When publish
// is true the result is also sent to the hub.
//
// A publish failure is reported in [Observation.PublishErr], not as an
// error. Returns an error only if the browser session cannot be started.
func (m *Monitor) CheckOnce(ctx context.Context, publish bool) (Observation, error) {
	id := uuid.NewString()
	logger := m.logger.With("cycle_id", id)
	start := time.Now()

	session, err := m.newSession(ctx)
	if err != nil {
		return Observation{}, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("failed to close browser session", "error", err)
		}
	}()

	checker := statuspage.NewChecker(m.operationalPhrase, logger)
	obs := Observation{
		CycleID:   id,
		AllOnline: checker.Check(ctx, session, m.statusURL),
		CheckedAt: time.Now(),
	}

	if publish {
		client, err := httpclient.New(m.hubURL)
		if err != nil {
			return obs, fmt.Errorf("invalid hub url: %w", err)
		}
		defer client.Close()

		res := hub.NewPublisher(client, m.sensorEntity, m.publishTimeout, logger).
			Publish(ctx, m.hubToken, obs.AllOnline)
		obs.Published = true
		obs.PublishStatusCode = res.StatusCode
		obs.LastUpdated = res.LastUpdated
		obs.PublishErr = res.Err
	}

	obs.Duration = time.Since(start)
	return obs, nil
}

// Latest returns the observation from the most recent completed cycle, or
// false if no cycle has completed.
func (m *Monitor) Latest() (Observation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.hasLatest
}

// StatusURL returns the status page being checked.
func (m *Monitor) StatusURL() string {
	return m.statusURL
}

// PollingInterval returns the wait between cycles.
func (m *Monitor) PollingInterval() time.Duration {
	return m.pollingInterval
}

// Port returns the status server port, 0 when disabled.
func (m *Monitor) Port() int {
	return m.port
}

// record stores o and fires callbacks after the store is updated.
func (m *Monitor) record(o Observation) {
	m.mu.Lock()
	m.latest = o
	m.hasLatest = true
	m.mu.Unlock()

	m.store.Update(observationToSnapshot(o))

	for _, cb := range m.callbacks {
		invokeCallbackSafe(cb, o, m.logger)
	}
}

// newSession allocates a session from the configured factory or engine.
func (m *Monitor) newSession(ctx context.Context) (browser.Session, error) {
	if m.sessionFactory != nil {
		s, err := m.sessionFactory(ctx)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, errors.New("session factory returned nil session")
		}
		return s, nil
	}

	switch m.browser.Engine {
	case EngineHTTP:
		client, err := httpclient.New("")
		if err != nil {
			return nil, err
		}
		return browser.NewHTTPSession(client, m.pageTimeout), nil
	default:
		s, err := browser.NewChromeSession(ctx, browser.ChromeOptions{
			Headless:        m.browser.Headless,
			ExecPath:        m.browser.ExecPath,
			NoSandbox:       m.browser.NoSandbox,
			NavigateTimeout: m.pageTimeout,
			WindowWidth:     m.browser.WindowWidth,
			WindowHeight:    m.browser.WindowHeight,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
