// Standalone mock status page and Home Assistant hub for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/ecobeestatus run -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

func main() {
	fmt.Println("Mock server starting on :9999")
	fmt.Println("GET  /status            toggles with POST /toggle")
	fmt.Println("POST /api/states/<id>   accepts token demo-token")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var degraded atomic.Bool

	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		msg := "All Systems Operational"
		if degraded.Load() {
			msg = "Major Outage: Thermostat API"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<html><body><h1>Ecobee Status</h1><p>%s</p></body></html>", msg)
	})

	http.HandleFunc("/toggle", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		now := !degraded.Load()
		degraded.Store(now)
		slog.Info("status page changed", "degraded", now)
	})

	http.HandleFunc("/api/states/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer demo-token" {
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
		_ = json.NewEncoder(w).Encode(map[string]string{
			"entity_id":    entity,
			"state":        in.State,
			"last_updated": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
