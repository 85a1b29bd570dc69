package ecobeestatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSession struct {
	mu       sync.Mutex
	text     string
	navErr   error
	visited  []string
	closed   int
	closeErr error
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = append(s.visited, url)
	return s.navErr
}

func (s *fakeSession) RenderedText(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.closeErr
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func factoryFor(s *fakeSession) SessionFactory {
	return func(context.Context) (Session, error) { return s, nil }
}

type hubRequest struct {
	path string
	auth string
	body string
}

// fakeHub records state posts and answers with status code.
func fakeHub(t *testing.T, status int) (*httptest.Server, <-chan hubRequest) {
	t.Helper()
	reqs := make(chan hubRequest, 16)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		select {
		case reqs <- hubRequest{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: string(body)}:
		default:
		}
		w.WriteHeader(status)
		if status < 300 {
			_, _ = fmt.Fprint(w, `{"entity_id":"sensor.ecobee_api_status","state":"true","last_updated":"2024-05-01T10:00:00+00:00"}`)
		}
	}))
	t.Cleanup(ts.Close)
	return ts, reqs
}

func TestStart_PublishesObservation(t *testing.T) {
	ts, reqs := fakeHub(t, http.StatusOK)
	session := &fakeSession{text: "Ecobee Status\nAll Systems Operational"}

	observed := make(chan Observation, 4)
	m, err := New(
		WithHubURL(ts.URL),
		WithHubToken("abc"),
		WithSessionFactory(factoryFor(session)),
		WithPollingInterval(time.Hour),
		WithLogger(testLogger()),
		OnObservation(func(o Observation) { observed <- o }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	select {
	case r := <-reqs:
		if r.path != "/api/states/sensor.ecobee_api_status" {
			t.Errorf("path = %q", r.path)
		}
		if r.auth != "Bearer abc" {
			t.Errorf("Authorization = %q", r.auth)
		}
		if r.body != `{"state":"true"}` {
			t.Errorf("body = %q", r.body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub received no request")
	}

	var o Observation
	select {
	case o = <-observed:
	case <-time.After(2 * time.Second):
		t.Fatal("no observation delivered")
	}
	if !o.AllOnline || !o.Published || o.PublishErr != nil || o.PublishStatusCode != http.StatusOK {
		t.Errorf("observation = %+v", o)
	}
	if o.LastUpdated.IsZero() {
		t.Error("LastUpdated not parsed from hub response")
	}
	if latest, ok := m.Latest(); !ok || latest.CycleID != o.CycleID {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}
	if session.closeCount() != 1 {
		t.Errorf("session closed %d times, want 1", session.closeCount())
	}
	if len(session.visited) == 0 || session.visited[0] != DefaultStatusURL {
		t.Errorf("visited = %v", session.visited)
	}
}

// TestStart_HubRejectionKeepsPolling verifies that a rejected publish is
// reported and the loop keeps going. Shutdown lands while requests may still
// be in flight; every observation must still carry the hub's rejection.
func TestStart_HubRejectionKeepsPolling(t *testing.T) {
	ts, reqs := fakeHub(t, http.StatusUnauthorized)
	session := &fakeSession{text: "Partial outage"}

	observed := make(chan Observation, 64)
	m, err := New(
		WithHubURL(ts.URL),
		WithHubToken("bad"),
		WithSessionFactory(factoryFor(session)),
		WithPollingInterval(20*time.Millisecond),
		WithLogger(testLogger()),
		OnObservation(func(o Observation) {
			select {
			case observed <- o:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	deadline := time.After(3 * time.Second)
	for seen := 0; seen < 3; {
		select {
		case r := <-reqs:
			if r.body != `{"state":"false"}` {
				t.Errorf("body = %q", r.body)
			}
		case o := <-observed:
			if o.PublishErr == nil || o.PublishStatusCode != http.StatusUnauthorized {
				t.Errorf("expected rejected publish, got %+v", o)
			}
			seen++
		case <-deadline:
			t.Fatalf("only %d cycles completed", seen)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
	close(observed)

	for o := range observed {
		if o.PublishErr == nil || o.PublishStatusCode != http.StatusUnauthorized {
			t.Errorf("expected rejected publish, got %+v", o)
		}
	}
}

func TestStart_SessionFactoryFailureIsFatal(t *testing.T) {
	ts, reqs := fakeHub(t, http.StatusOK)

	m, err := New(
		WithHubURL(ts.URL),
		WithHubToken("abc"),
		WithSessionFactory(func(context.Context) (Session, error) {
			return nil, errors.New("chrome not installed")
		}),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = m.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "chrome not installed") {
		t.Fatalf("Start() error = %v, want startup failure", err)
	}

	select {
	case r := <-reqs:
		t.Errorf("unexpected hub request %+v", r)
	default:
	}
}

func TestStart_NilSessionIsFatal(t *testing.T) {
	m, err := New(
		WithHubURL("http://127.0.0.1:1"),
		WithHubToken("abc"),
		WithSessionFactory(func(context.Context) (Session, error) { return nil, nil }),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("Start() expected error for nil session")
	}
}

func TestStart_AlreadyCancelled(t *testing.T) {
	var calls atomic.Int32
	m, err := New(
		WithHubURL("http://127.0.0.1:1"),
		WithHubToken("abc"),
		WithSessionFactory(func(context.Context) (Session, error) {
			calls.Add(1)
			return &fakeSession{}, nil
		}),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Start(ctx); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("session factory called %d times, want 0", calls.Load())
	}
}

func TestStart_Twice(t *testing.T) {
	m, err := New(
		WithHubURL("http://127.0.0.1:1"),
		WithHubToken("abc"),
		WithSessionFactory(factoryFor(&fakeSession{})),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = m.Start(ctx)

	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestStart_CallbackPanicRecovered(t *testing.T) {
	ts, _ := fakeHub(t, http.StatusOK)

	var after atomic.Int32
	m, err := New(
		WithHubURL(ts.URL),
		WithHubToken("abc"),
		WithSessionFactory(factoryFor(&fakeSession{text: "all systems operational"})),
		WithPollingInterval(20*time.Millisecond),
		WithLogger(testLogger()),
		OnObservation(func(Observation) { panic("boom") }),
		OnObservation(func(Observation) { after.Add(1) }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for after.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if after.Load() < 2 {
		t.Errorf("callback after panicking one ran %d times, want >= 2", after.Load())
	}
}

func TestStart_ServesStatusAPI(t *testing.T) {
	ts, _ := fakeHub(t, http.StatusOK)

	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	observed := make(chan Observation, 1)
	m, err := New(
		WithHubURL(ts.URL),
		WithHubToken("abc"),
		WithSessionFactory(factoryFor(&fakeSession{text: "All systems operational"})),
		WithPollingInterval(time.Hour),
		WithPort(port),
		WithLogger(testLogger()),
		OnObservation(func(o Observation) { observed <- o }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	var o Observation
	select {
	case o = <-observed:
	case err := <-done:
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("no observation delivered")
	}

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/status", port))
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var snap struct {
		CycleID   string `json:"cycle_id"`
		AllOnline bool   `json:"all_online"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.CycleID != o.CycleID || !snap.AllOnline {
		t.Errorf("snapshot = %+v, want cycle %s online", snap, o.CycleID)
	}

	cancel()
	<-done
}

func TestCheckOnce_NoPublish(t *testing.T) {
	ts, reqs := fakeHub(t, http.StatusOK)
	session := &fakeSession{text: "all systems OPERATIONAL"}

	m, err := New(
		WithHubURL(ts.URL),
		WithHubToken("abc"),
		WithSessionFactory(factoryFor(session)),
		WithStatusURL("https://status.example.com"),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	o, err := m.CheckOnce(context.Background(), false)
	if err != nil {
		t.Fatalf("CheckOnce() error = %v", err)
	}
	if !o.AllOnline || o.Published {
		t.Errorf("observation = %+v", o)
	}
	if session.closeCount() != 1 {
		t.Errorf("session closed %d times, want 1", session.closeCount())
	}
	if session.visited[0] != "https://status.example.com" {
		t.Errorf("visited = %v", session.visited)
	}
	select {
	case r := <-reqs:
		t.Errorf("unexpected hub request %+v", r)
	default:
	}
}

func TestCheckOnce_Publish(t *testing.T) {
	ts, reqs := fakeHub(t, http.StatusOK)

	m, err := New(
		WithHubURL(ts.URL),
		WithHubToken("abc"),
		WithSessionFactory(factoryFor(&fakeSession{navErr: errors.New("dns failure")})),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	o, err := m.CheckOnce(context.Background(), true)
	if err != nil {
		t.Fatalf("CheckOnce() error = %v", err)
	}
	if o.AllOnline {
		t.Error("navigation failure must report not operational")
	}
	if !o.Published || o.PublishErr != nil || o.PublishStatusCode != http.StatusOK {
		t.Errorf("observation = %+v", o)
	}

	r := <-reqs
	if r.body != `{"state":"false"}` {
		t.Errorf("body = %q", r.body)
	}
}

func TestCheckOnce_SessionFailure(t *testing.T) {
	m, err := New(
		WithHubURL("http://127.0.0.1:1"),
		WithHubToken("abc"),
		WithSessionFactory(func(context.Context) (Session, error) {
			return nil, errors.New("no browser")
		}),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := m.CheckOnce(context.Background(), false); err == nil {
		t.Fatal("CheckOnce() expected error")
	}
}

func TestCheckOnce_HTTPEngine(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><h1>All Systems Operational</h1></body></html>")
	}))
	defer page.Close()

	m, err := New(
		WithHubURL("http://127.0.0.1:1"),
		WithHubToken("abc"),
		WithStatusURL(page.URL),
		WithBrowser(BrowserOptions{Engine: EngineHTTP}),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	o, err := m.CheckOnce(context.Background(), false)
	if err != nil {
		t.Fatalf("CheckOnce() error = %v", err)
	}
	if !o.AllOnline {
		t.Error("expected operational page")
	}
}
