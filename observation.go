package ecobeestatus

import (
	"context"
	"log/slog"
	"time"

	"github.com/jpalmerr/ecobeestatus/internal/poller"
	"github.com/jpalmerr/ecobeestatus/internal/store"
)

// Observation is the outcome of one poll cycle.
//
// AllOnline is what was sent to the hub. PublishErr is non-nil when the hub
// could not be reached, rejected the state, or returned an unreadable body;
// it wraps a *hub.PublishError.
type Observation struct {
	// CycleID correlates the observation with log lines.
	CycleID string

	// AllOnline is true when the status page showed the operational phrase.
	AllOnline bool

	// CheckedAt is when the status page check finished.
	CheckedAt time.Time

	// Published is false for one-shot checks that skipped the hub.
	Published bool

	// PublishStatusCode is the hub's HTTP status, zero if no response arrived.
	PublishStatusCode int

	// LastUpdated is the hub's last_updated timestamp, zero if unknown.
	LastUpdated time.Time

	// PublishErr describes a publish failure.
	PublishErr error

	// Duration is the wall time of the cycle.
	Duration time.Duration
}

// Session renders pages for the status check. Implementations are used by
// one goroutine at a time.
type Session interface {
	Navigate(ctx context.Context, url string) error
	RenderedText(ctx context.Context) (string, error)
	Close() error
}

// SessionFactory allocates a [Session]. A failing factory stops [Monitor.Start]
// before the first cycle.
type SessionFactory func(ctx context.Context) (Session, error)

// Browser engines accepted by [BrowserOptions].
const (
	EngineChrome = "chrome"
	EngineHTTP   = "http"
)

// BrowserOptions selects and tunes the built-in session engine.
type BrowserOptions struct {
	// Engine is [EngineChrome] (default) or [EngineHTTP].
	Engine string

	// Headless runs Chrome without a window.
	Headless bool

	// ExecPath overrides the Chrome binary lookup.
	ExecPath string

	// NoSandbox starts Chrome with --no-sandbox, needed when running as root
	// in a container.
	NoSandbox bool

	WindowWidth  int
	WindowHeight int
}

func cycleToObservation(r poller.CycleResult) Observation {
	return Observation{
		CycleID:           r.ID,
		AllOnline:         r.AllOnline,
		CheckedAt:         r.CheckedAt,
		Published:         true,
		PublishStatusCode: r.Publish.StatusCode,
		LastUpdated:       r.Publish.LastUpdated,
		PublishErr:        r.Publish.Err,
		Duration:          r.Duration,
	}
}

func observationToSnapshot(o Observation) store.Snapshot {
	snap := store.Snapshot{
		CycleID:           o.CycleID,
		AllOnline:         o.AllOnline,
		CheckedAt:         o.CheckedAt,
		PublishStatusCode: o.PublishStatusCode,
	}
	if !o.LastUpdated.IsZero() {
		t := o.LastUpdated
		snap.LastUpdated = &t
	}
	if o.PublishErr != nil {
		s := o.PublishErr.Error()
		snap.Error = &s
	}
	return snap
}

// invokeCallbackSafe calls an observation callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Observation), o Observation, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("observation callback panicked",
				"panic", r,
				"cycle_id", o.CycleID,
			)
		}
	}()
	cb(o)
}
