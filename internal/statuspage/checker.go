package statuspage

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/ecobeestatus/internal/browser"
)

// DefaultPhrase is the text a status page shows when nothing is degraded.
const DefaultPhrase = "all systems operational"

// Checker evaluates the status page through a [browser.Session].
type Checker struct {
	phrase string
	logger *slog.Logger
}

// NewChecker creates a [Checker] that looks for phrase, case-insensitively.
// An empty phrase uses [DefaultPhrase]; a nil logger uses slog.Default().
func NewChecker(phrase string, logger *slog.Logger) *Checker {
	if strings.TrimSpace(phrase) == "" {
		phrase = DefaultPhrase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		phrase: strings.ToLower(phrase),
		logger: logger,
	}
}

// Phrase returns the lower-cased phrase the checker looks for.
func (c *Checker) Phrase() string {
	return c.phrase
}

// Operational reports whether text contains the checker's phrase,
// ignoring case.
func (c *Checker) Operational(text string) bool {
	return strings.Contains(strings.ToLower(text), c.phrase)
}

// Check navigates session to url and reports whether the rendered page
// contains the operational phrase.
//
// Any failure, including a panic inside the session, is logged at error
// level and reported as false. The session is left on whatever page the
// navigation reached.
func (c *Checker) Check(ctx context.Context, session browser.Session, url string) (allOnline bool) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			c.logger.Error("status check panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			allOnline = false
		}
	}()

	if err := session.Navigate(ctx, url); err != nil {
		c.logger.Error("status check failed", "url", url, "error", err)
		return false
	}

	text, err := session.RenderedText(ctx)
	if err != nil {
		c.logger.Error("status check failed", "url", url, "error", err)
		return false
	}

	allOnline = c.Operational(text)
	c.logger.Info("check completed",
		"url", url,
		"all_online", allOnline,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return allOnline
}
