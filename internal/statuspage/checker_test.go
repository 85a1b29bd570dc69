package statuspage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// fakeSession is a scripted browser.Session.
type fakeSession struct {
	text        string
	navigateErr error
	textErr     error
	panicMsg    string

	navigated []string
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.navigated = append(f.navigated, url)
	return f.navigateErr
}

func (f *fakeSession) RenderedText(ctx context.Context) (string, error) {
	return f.text, f.textErr
}

func (f *fakeSession) Close() error { return nil }

// recordingHandler counts records per level.
type recordingHandler struct {
	mu     sync.Mutex
	counts map[slog.Level]int
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{counts: make(map[slog.Level]int)}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler     { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler          { return h }
func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.counts[r.Level]++
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[level]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"title case", "All Systems Operational", true},
		{"upper case", "ALL SYSTEMS OPERATIONAL", true},
		{"embedded in markup", "<div class=\"page-status\"><span>All Systems Operational</span></div>", true},
		{"major outage", "Major Outage", false},
		{"partial phrase", "All Systems", false},
		{"split by markup", "All Systems <b>Operational</b>", false},
		{"empty page", "", false},
		{"degraded", "Partial System Outage - API degraded", false},
	}

	checker := NewChecker("", testLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{text: tt.text}
			got := checker.Check(context.Background(), session, "https://status.ecobee.com")
			if got != tt.want {
				t.Errorf("Check() with text %q = %v, want %v", tt.text, got, tt.want)
			}
			if len(session.navigated) != 1 || session.navigated[0] != "https://status.ecobee.com" {
				t.Errorf("navigated = %v, want one navigation to the status url", session.navigated)
			}
		})
	}
}

func TestChecker_CheckFailuresReportFalse(t *testing.T) {
	tests := []struct {
		name    string
		session *fakeSession
	}{
		{"navigation timeout", &fakeSession{text: "All Systems Operational", navigateErr: context.DeadlineExceeded}},
		{"dns failure", &fakeSession{navigateErr: errors.New("dial tcp: lookup status.ecobee.com: no such host")}},
		{"render error", &fakeSession{text: "All Systems Operational", textErr: errors.New("render failed")}},
		{"session panic", &fakeSession{panicMsg: "devtools connection lost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newRecordingHandler()
			checker := NewChecker("", slog.New(handler))

			if got := checker.Check(context.Background(), tt.session, "https://status.ecobee.com"); got {
				t.Error("Check() = true, want false on failure")
			}
			if n := handler.count(slog.LevelError); n != 1 {
				t.Errorf("error log count = %d, want 1", n)
			}
		})
	}
}

func TestChecker_CustomPhrase(t *testing.T) {
	checker := NewChecker("Everything Is Fine", testLogger())

	if checker.Phrase() != "everything is fine" {
		t.Errorf("Phrase() = %q, want lower-cased phrase", checker.Phrase())
	}
	if !checker.Operational("status: EVERYTHING is fine") {
		t.Error("Operational() = false, want true")
	}
	if checker.Operational("All Systems Operational") {
		t.Error("Operational() = true for default phrase with custom checker")
	}
}

func TestNewChecker_Defaults(t *testing.T) {
	checker := NewChecker("   ", nil)
	if checker.Phrase() != DefaultPhrase {
		t.Errorf("Phrase() = %q, want %q", checker.Phrase(), DefaultPhrase)
	}
	if checker.logger == nil {
		t.Error("logger = nil, want slog.Default()")
	}
}
