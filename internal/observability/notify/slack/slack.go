// Package slack delivers queue failure notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/target/mmk-jobqueue/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// AdminURLPrefix, when set, links the item id to the admin queue API.
	AdminURLPrefix string
}

// Client delivers queue failure notifications to a Slack webhook.
type Client struct {
	webhookURL     string
	channel        string
	username       string
	retryLimit     int
	adminURLPrefix string
	client         *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
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
		webhookURL:     webhookURL,
		channel:        strings.TrimSpace(cfg.Channel),
		username:       notify.FallbackString(strings.TrimSpace(cfg.Username), "mmk-jobqueue"),
		retryLimit:     max(cfg.RetryLimit, 0),
		adminURLPrefix: strings.TrimSpace(cfg.AdminURLPrefix),
		client:         hc,
	}, nil
}

// SendQueueFailure posts a formatted message to Slack.
func (c *Client) SendQueueFailure(ctx context.Context, payload notify.QueueFailurePayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return notify.PostJSON(ctx, notify.PostParams{
		Client:     c.client,
		URL:        c.webhookURL,
		Body:       body,
		RetryLimit: c.retryLimit,
		Service:    "slack webhook",
	})
}

func (c *Client) formatMessage(payload notify.QueueFailurePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var text strings.Builder
	text.WriteString("*Queue failure alert* ")
	text.WriteString(c.itemRef(payload.ItemID))
	if payload.JobType != "" {
		text.WriteString(" (" + payload.JobType + ")")
	}
	text.WriteByte('\n')

	outcome := "retries exhausted"
	if payload.Fatal {
		outcome = "fatal error"
	}
	appendField(&text, "Severity", notify.FallbackString(payload.Severity, notify.SeverityCritical))
	appendField(&text, "Outcome", outcome)
	appendField(&text, "Attempts", strconv.Itoa(payload.FailureCount))
	appendField(&text, "Parent", payload.ParentID)
	appendField(&text, "Error class", payload.ErrorClass)
	appendField(&text, "Error", escapeSlackText(payload.Error))
	appendMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: " + timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func (c *Client) itemRef(itemID string) string {
	id := escapeSlackText(notify.FallbackString(itemID, "unknown"))
	if c.adminURLPrefix == "" || itemID == "" {
		return "`" + id + "`"
	}
	u, err := url.Parse(c.adminURLPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "`" + id + "`"
	}
	link, err := url.JoinPath(u.String(), itemID)
	if err != nil {
		return "`" + id + "`"
	}
	return fmt.Sprintf("<%s|%s>", link, id)
}

func escapeSlackText(value string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(value)
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• " + label + ": " + value + "\n")
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text.WriteString("    • " + k + ": " + metadata[k] + "\n")
	}
}
