package hub

import (
	"fmt"
	"strconv"
	"time"
)

// SensorState is the body posted to the hub's states endpoint.
type SensorState struct {
	State string `json:"state"`
}

// NewSensorState returns the wire form of an observation: the lower-case
// string "true" or "false".
func NewSensorState(allOnline bool) SensorState {
	return SensorState{State: strconv.FormatBool(allOnline)}
}

// StateResponse is the part of the hub's reply the publisher consumes.
// Other fields are ignored.
type StateResponse struct {
	EntityID    string    `json:"entity_id"`
	State       string    `json:"state"`
	LastUpdated time.Time `json:"last_updated"`
}

// ErrorKind classifies a failed publish attempt.
type ErrorKind string

const (
	// KindTransport means no response was received (connection, DNS,
	// timeout, cancellation).
	KindTransport ErrorKind = "transport"

	// KindRejected means the hub answered with a non-2xx status.
	KindRejected ErrorKind = "rejected"

	// KindResponseParse means the hub accepted the state but its reply
	// could not be decoded.
	KindResponseParse ErrorKind = "response_parse"
)

// PublishError describes why a publish attempt failed.
type PublishError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *PublishError) Error() string {
	switch e.Kind {
	case KindRejected:
		return fmt.Sprintf("hub rejected state: status %d", e.StatusCode)
	case KindResponseParse:
		return fmt.Sprintf("failed to decode hub response: %v", e.Err)
	default:
		return fmt.Sprintf("hub request failed: %v", e.Err)
	}
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Result holds the outcome of a single publish attempt.
type Result struct {
	// StatusCode is the hub's HTTP status, zero on transport failure.
	StatusCode int

	// LastUpdated is the hub's last_updated timestamp on success.
	LastUpdated time.Time

	// Latency is the time taken by the request.
	Latency time.Duration

	// Err is nil on success, otherwise a *PublishError.
	Err error
}

// Accepted reports whether the hub stored the state. A reply that could
// not be decoded still counts as accepted.
func (r Result) Accepted() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
