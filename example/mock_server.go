package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

const mockToken = "demo-token"

var mockPages = []string{
	"<h1>Ecobee Status</h1><p>All Systems Operational</p>",
	"<h1>Ecobee Status</h1><p>Degraded Performance: Thermostat API</p>",
}

// StartMockServers serves a status page at /status that flips between
// operational and degraded every 20-60 seconds, and a fake Home Assistant
// state endpoint under /api/states/.
// Call this in a goroutine before starting the monitor.
func StartMockServers(addr string) {
	var (
		mu           sync.Mutex
		page         int
		nextChangeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
	)

	mux := http.NewServeMux()

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if time.Now().After(nextChangeAt) {
			page = (page + 1) % len(mockPages)
			nextChangeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
			slog.Info("status page changed", "operational", page == 0)
		}
		body := mockPages[page]
		mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body>"+body+"</body></html>")
	})

	mux.HandleFunc("/api/states/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+mockToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var in struct {
			State string `json:"state"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		entity := strings.TrimPrefix(r.URL.Path, "/api/states/")
		slog.Info("hub state received", "entity_id", entity, "state", in.State)

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]string{
			"entity_id":    entity,
			"state":        in.State,
			"last_updated": time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
