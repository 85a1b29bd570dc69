package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/ecobeestatus"
)

func main() {
	// mock status page and hub (see mock_server.go)
	go StartMockServers(":9999")
	time.Sleep(100 * time.Millisecond)

	m, err := ecobeestatus.New(
		ecobeestatus.WithHubURL("http://localhost:9999"),
		ecobeestatus.WithHubToken(mockToken),
		ecobeestatus.WithStatusURL("http://localhost:9999/status"),
		ecobeestatus.WithBrowser(ecobeestatus.BrowserOptions{Engine: ecobeestatus.EngineHTTP}),
		ecobeestatus.WithPollingInterval(5*time.Second),
		ecobeestatus.WithPort(8080),
		ecobeestatus.OnObservation(func(o ecobeestatus.Observation) {
			if !o.AllOnline {
				slog.Warn("ecobee reports an incident", "cycle_id", o.CycleID)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Ecobee status demo")
	fmt.Println()
	fmt.Println("  Dashboard:    http://localhost:8080")
	fmt.Println("  Status page:  http://localhost:9999/status (flips every 20-60s)")
	fmt.Println("  Polling:      every 5s, plain HTTP engine")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		slog.Error("monitor error", "error", err)
		os.Exit(1)
	}
}
