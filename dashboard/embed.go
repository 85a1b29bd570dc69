// Package dashboard provides the embedded web UI for the status monitor.
//
// The page polls nothing itself; it reads the latest snapshot from
// /api/status and follows /api/sse for new poll cycles.
package dashboard

import "embed"

// Assets contains the dashboard web UI:
//
//	assets/
//	  index.html    - dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
