package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/ecobeestatus/internal/httpclient"
)

const (
	// DefaultEntityID is the sensor the observation is published to.
	DefaultEntityID = "sensor.ecobee_api_status"

	// DefaultTimeout bounds one publish request.
	DefaultTimeout = 30 * time.Second

	contentType = "application/json; charset=us-ascii"
)

// Publisher posts observations to the hub.
//
// The bearer token is supplied per call and set on that request only, so a
// Publisher holds no per-call state and the shared client is never mutated.
type Publisher struct {
	client   *httpclient.Client
	entityID string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewPublisher creates a [Publisher] that posts through client, whose base
// address is the hub URL. Empty entityID uses [DefaultEntityID]; zero
// timeout uses 30s.
func NewPublisher(client *httpclient.Client, entityID string, timeout time.Duration, logger *slog.Logger) *Publisher {
	if entityID == "" {
		entityID = DefaultEntityID
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:   client,
		entityID: entityID,
		timeout:  timeout,
		logger:   logger,
	}
}

// Route returns the path, relative to the hub URL, that states are posted to.
func (p *Publisher) Route() string {
	return "api/states/" + p.entityID
}

// Publish sends allOnline to the hub once.
//
// Publish does not retry and does not return an error: transport failures,
// rejections and undecodable replies are logged and reported in
// [Result.Err] as a *PublishError.
func (p *Publisher) Publish(ctx context.Context, token string, allOnline bool) Result {
	p.logger.Info("sending state to hub", "entity_id", p.entityID, "all_online", allOnline)

	body, err := json.Marshal(NewSensorState(allOnline))
	if err != nil {
		// unreachable for a struct with one string field
		p.logger.Error("failed to encode sensor state", "error", err)
		return Result{Err: &PublishError{Kind: KindTransport, Err: err}}
	}

	resp := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   p.Route(),
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"Content-Type":  contentType,
		},
		Body:    body,
		Timeout: p.timeout,
	})

	result := Result{
		StatusCode: resp.StatusCode,
		Latency:    resp.Latency,
	}

	if resp.Error != nil {
		result.Err = &PublishError{Kind: KindTransport, StatusCode: resp.StatusCode, Err: resp.Error}
		p.logger.Error("hub request failed", "error", resp.Error)
		return result
	}

	if !resp.OK() {
		result.Err = &PublishError{Kind: KindRejected, StatusCode: resp.StatusCode}
		p.logger.Error("hub rejected state",
			"status_code", resp.StatusCode,
			"status", http.StatusText(resp.StatusCode),
			"body", truncate(string(resp.Body), 200),
		)
		return result
	}

	var state StateResponse
	if err := json.Unmarshal(resp.Body, &state); err != nil {
		result.Err = &PublishError{Kind: KindResponseParse, StatusCode: resp.StatusCode, Err: err}
		p.logger.Error("failed to decode hub response", "status_code", resp.StatusCode, "error", err)
		return result
	}

	result.LastUpdated = state.LastUpdated
	p.logger.Info("hub accepted state",
		"status_code", resp.StatusCode,
		"last_updated", state.LastUpdated.Format(time.RFC3339Nano),
		"latency_ms", resp.Latency.Milliseconds(),
	)
	return result
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
