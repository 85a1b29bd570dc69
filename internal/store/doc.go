// Package store keeps the most recent poll cycle and fans updates out to
// subscribers.
//
// Only the latest [Snapshot] is retained; there is no history and nothing
// survives a restart. Subscribers receive updates via buffered channels with
// non-blocking sends, so a slow subscriber misses updates rather than
// stalling the poll loop.
package store
