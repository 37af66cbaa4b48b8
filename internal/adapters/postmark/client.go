// Package postmark implements core.Mailer with the Postmark template API.
package postmark

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/target/mmk-jobqueue/internal/adapters/httpclient"
	"github.com/target/mmk-jobqueue/internal/core"
)

// DefaultBaseURL is the Postmark API endpoint.
const DefaultBaseURL = "https://api.postmarkapp.com"

// Config configures the Postmark client.
type Config struct {
	BaseURL     string
	ServerToken string
	From        string
	HTTPClient  *http.Client
}

// Client sends templated email through Postmark.
type Client struct {
	api  *httpclient.Client
	from string
}

var _ core.Mailer = (*Client)(nil)

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ServerToken) == "" {
		return nil, errors.New("postmark server token is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("postmark from address is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	api, err := httpclient.New(httpclient.Config{
		BaseURL: base,
		HTTP:    cfg.HTTPClient,
		Header:  http.Header{"X-Postmark-Server-Token": {cfg.ServerToken}},
	})
	if err != nil {
		return nil, fmt.Errorf("postmark client: %w", err)
	}
	return &Client{api: api, from: cfg.From}, nil
}

type templateRequest struct {
	To            string            `json:"To"`
	From          string            `json:"From"`
	TemplateAlias string            `json:"TemplateAlias"`
	TemplateModel map[string]any    `json:"TemplateModel"`
	Metadata      map[string]string `json:"Metadata,omitempty"`
}

type sendResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
	MessageID string `json:"MessageID"`
}

// SendTemplate posts msg to /email/withTemplate.
func (c *Client) SendTemplate(ctx context.Context, msg core.TemplateEmail) error {
	if msg.To == "" {
		return errors.New("email recipient is required")
	}
	if msg.TemplateAlias == "" {
		return errors.New("template alias is required")
	}
	req := templateRequest{
		To:            msg.To,
		From:          c.from,
		TemplateAlias: msg.TemplateAlias,
		TemplateModel: msg.Model,
	}
	if msg.MessageID != "" {
		req.Metadata = map[string]string{"message_id": msg.MessageID}
	}

	var resp sendResponse
	if err := c.api.Do(ctx, http.MethodPost, "/email/withTemplate", nil, req, &resp); err != nil {
		return fmt.Errorf("postmark send %s: %w", msg.TemplateAlias, err)
	}
	if resp.ErrorCode != 0 {
		return fmt.Errorf("postmark send %s: error %d: %s", msg.TemplateAlias, resp.ErrorCode, resp.Message)
	}
	return nil
}
