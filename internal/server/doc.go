// Package server provides the HTTP server for the status dashboard and API.
//
// Endpoints:
//
//   - GET /: embedded dashboard page
//   - GET /api/status: latest poll cycle snapshot as JSON
//   - GET /api/sse: Server-Sent Events stream of new snapshots
//   - GET /healthz: liveness probe
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests. It is started by
// [ecobeestatus.Monitor.Start] when a port is configured.
package server
