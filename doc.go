// Package ecobeestatus relays the health of the Ecobee API to a Home
// Assistant sensor.
//
// A [Monitor] renders the Ecobee status page, reports whether it says "all
// systems operational", and writes that boolean to a hub sensor entity
// (sensor.ecobee_api_status by default). It repeats after a fixed delay of
// 10 minutes until its context is cancelled.
//
// # Quick Start
//
//	m, _ := ecobeestatus.New(
//	    ecobeestatus.WithHubURL("http://homeassistant.local:8123"),
//	    ecobeestatus.WithHubToken(os.Getenv("HA_TOKEN")),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	m.Start(ctx) // blocks until ctx is cancelled
//
// # Failure handling
//
// Nothing that goes wrong inside a cycle stops the monitor. A page that
// cannot be loaded counts as not operational and is still published; a hub
// that is down or rejects the token is logged and retried on the next cycle.
// Only a browser that cannot be launched at startup makes [Monitor.Start]
// return an error.
//
// # Sessions
//
// The status page is rendered by headless Chrome by default. Use
// [WithBrowser] with [EngineHTTP] to fetch the raw page instead, or
// [WithSessionFactory] to supply any [Session] implementation.
//
// # Observing results
//
// Register [OnObservation] callbacks, read [Monitor.Latest], or enable the
// status server with [WithPort] for a JSON API, SSE stream and dashboard.
package ecobeestatus
