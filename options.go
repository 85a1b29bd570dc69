package ecobeestatus

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
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
}

// Option is a function that configures a [Monitor] during construction.
// Options return an error if validation fails.
type Option func(*monitorConfig) error

// WithHubURL sets the base address of the home-automation hub. Required.
//
// A path prefix is kept: "https://ha.example/proxy" publishes to
// "https://ha.example/proxy/api/states/<entity>".
func WithHubURL(raw string) Option {
	return func(cfg *monitorConfig) error {
		if err := checkHTTPURL(raw); err != nil {
			return fmt.Errorf("hub url: %w", err)
		}
		cfg.hubURL = raw
		return nil
	}
}

// WithHubToken sets the bearer token sent with every publish. Required.
func WithHubToken(token string) Option {
	return func(cfg *monitorConfig) error {
		if strings.TrimSpace(token) == "" {
			return errors.New("hub token cannot be empty")
		}
		cfg.hubToken = token
		return nil
	}
}

// WithStatusURL sets the status page to check. Defaults to
// https://status.ecobee.com.
func WithStatusURL(raw string) Option {
	return func(cfg *monitorConfig) error {
		if err := checkHTTPURL(raw); err != nil {
			return fmt.Errorf("status url: %w", err)
		}
		cfg.statusURL = raw
		return nil
	}
}

// WithPollingInterval sets the wait between the end of one cycle and the
// start of the next. Defaults to 10 minutes.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPageTimeout sets the ceiling for loading and reading the status page.
// Defaults to 15 seconds.
func WithPageTimeout(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("page timeout must be positive")
		}
		cfg.pageTimeout = d
		return nil
	}
}

// WithPublishTimeout sets the ceiling for one hub request. Defaults to 30
// seconds.
func WithPublishTimeout(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("publish timeout must be positive")
		}
		cfg.publishTimeout = d
		return nil
	}
}

// WithSensorEntity sets the hub entity the observation is written to.
// Defaults to sensor.ecobee_api_status.
func WithSensorEntity(entityID string) Option {
	return func(cfg *monitorConfig) error {
		if !strings.Contains(entityID, ".") {
			return fmt.Errorf("sensor entity %q must be <domain>.<name>", entityID)
		}
		cfg.sensorEntity = entityID
		return nil
	}
}

// WithOperationalPhrase sets the text that marks the page as healthy.
// Matching ignores case. Defaults to "all systems operational".
func WithOperationalPhrase(phrase string) Option {
	return func(cfg *monitorConfig) error {
		if strings.TrimSpace(phrase) == "" {
			return errors.New("operational phrase cannot be empty")
		}
		cfg.operationalPhrase = phrase
		return nil
	}
}

// WithBrowser selects and tunes the built-in session engine. Ignored when
// [WithSessionFactory] is set.
func WithBrowser(opts BrowserOptions) Option {
	return func(cfg *monitorConfig) error {
		switch opts.Engine {
		case "", EngineChrome, EngineHTTP:
		default:
			return fmt.Errorf("unknown browser engine %q", opts.Engine)
		}
		cfg.browser = opts
		return nil
	}
}

// WithSessionFactory replaces the built-in session engine.
//
// Example:
//
//	m, err := ecobeestatus.New(
//	    ecobeestatus.WithHubURL("http://homeassistant.local:8123"),
//	    ecobeestatus.WithHubToken(token),
//	    ecobeestatus.WithSessionFactory(func(ctx context.Context) (ecobeestatus.Session, error) {
//	        return newFakeSession(), nil
//	    }),
//	)
func WithSessionFactory(f SessionFactory) Option {
	return func(cfg *monitorConfig) error {
		if f == nil {
			return errors.New("session factory cannot be nil")
		}
		cfg.sessionFactory = f
		return nil
	}
}

// WithPort serves the status API and dashboard on port. 0, the default,
// disables the server.
//
// Returns an error if the port is outside 0-65535.
func WithPort(port int) Option {
	return func(cfg *monitorConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("port must be between 0 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title.
func WithTitle(title string) Option {
	return func(cfg *monitorConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// OnObservation registers a function called after every poll cycle.
//
// Callbacks run synchronously, in registration order, on the goroutine
// that consumes cycle results. They must not block. Panics are recovered
// and logged.
//
// Nil callbacks are silently ignored.
func OnObservation(cb func(Observation)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
