package store

import "time"

// Snapshot is the outcome of one poll cycle as exposed by the status API.
type Snapshot struct {
	// CycleID identifies the poll cycle in logs.
	CycleID string `json:"cycle_id"`

	// AllOnline is the observation published to the hub.
	AllOnline bool `json:"all_online"`

	// CheckedAt is when the status page check finished.
	CheckedAt time.Time `json:"checked_at"`

	// PublishStatusCode is the hub's HTTP status, zero on transport failure.
	PublishStatusCode int `json:"publish_status_code"`

	// LastUpdated is the hub's last_updated timestamp, nil if unknown.
	LastUpdated *time.Time `json:"last_updated,omitempty"`

	// Error describes a publish failure, nil on success.
	Error *string `json:"error,omitempty"`
}

// Store holds the latest [Snapshot] and notifies subscribers of new ones.
type Store interface {
	// Update replaces the latest snapshot and notifies subscribers.
	Update(s Snapshot)

	// Latest returns the latest snapshot, false if no cycle has completed.
	Latest() (Snapshot, bool)

	// Subscribe returns a channel that receives each new snapshot.
	Subscribe() <-chan Snapshot

	// Unsubscribe removes the subscription and closes its channel.
	Unsubscribe(ch <-chan Snapshot)
}
