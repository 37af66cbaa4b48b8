// Package pagerduty delivers queue failure notifications as PagerDuty Events API v2 triggers.
package pagerduty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/target/mmk-jobqueue/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	// Endpoint overrides APIEndpoint.
	Endpoint   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client publishes events via PagerDuty's Events API v2.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	retryLimit int
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient constructs a PagerDuty events client from config. Callers must provide a routing key.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		routingKey: key,
		source:     notify.FallbackString(strings.TrimSpace(cfg.Source), "mmk-jobqueue"),
		component:  notify.FallbackString(strings.TrimSpace(cfg.Component), "queue"),
		endpoint:   notify.FallbackString(strings.TrimSpace(cfg.Endpoint), APIEndpoint),
		retryLimit: max(cfg.RetryLimit, 0),
		client:     hc,
	}, nil
}

// SendQueueFailure submits a trigger event to PagerDuty.
func (c *Client) SendQueueFailure(ctx context.Context, payload notify.QueueFailurePayload) error {
	body, err := json.Marshal(c.buildEvent(payload))
	if err != nil {
		return fmt.Errorf("encode pagerduty payload: %w", err)
	}
	return notify.PostJSON(ctx, notify.PostParams{
		Client:     c.client,
		URL:        c.endpoint,
		Body:       body,
		RetryLimit: c.retryLimit,
		Service:    "pagerduty api",
	})
}

func (c *Client) buildEvent(payload notify.QueueFailurePayload) map[string]any {
	severity := notify.FallbackString(strings.ToLower(payload.Severity), notify.SeverityCritical)

	occurredAt := payload.OccurredAt.UTC()
	if payload.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	custom := map[string]any{
		"queue_item_id": payload.ItemID,
		"job_type":      payload.JobType,
		"failure_count": strconv.Itoa(payload.FailureCount),
		"fatal":         payload.Fatal,
		"error":         payload.Error,
		"error_class":   payload.ErrorClass,
	}
	if payload.ParentID != "" {
		custom["parent_id"] = payload.ParentID
	}
	for k, v := range payload.Metadata {
		if _, exists := custom[k]; !exists {
			custom[k] = v
		}
	}

	return map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    strings.Trim(payload.JobType+":"+payload.ItemID, ":"),
		"payload": map[string]any{
			"summary":        payload.Summary(),
			"severity":       severity,
			"source":         c.source,
			"component":      c.component,
			"timestamp":      occurredAt.Format(time.RFC3339),
			"custom_details": custom,
		},
	}
}
