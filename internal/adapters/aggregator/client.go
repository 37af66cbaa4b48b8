// Package aggregator is the client for the aggregator task management API.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/target/mmk-jobqueue/internal/adapters/httpclient"
	"github.com/target/mmk-jobqueue/internal/core"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// MediaType is the versioned content type of the aggregator API.
const MediaType = "application/vnd.janus.aggregator+json;version=0.1"

// maxPages bounds pagination against a server that keeps returning tokens.
const maxPages = 10000

// Client calls one aggregator.
type Client struct {
	api *httpclient.Client
}

var _ core.AggregatorAPI = (*Client)(nil)

// NewClient returns a Client for the API at baseURL authenticated with bearerToken.
func NewClient(baseURL, bearerToken string, hc *http.Client) (*Client, error) {
	if bearerToken == "" {
		return nil, errors.New("aggregator bearer token is required")
	}
	api, err := httpclient.New(httpclient.Config{
		BaseURL:   baseURL,
		HTTP:      hc,
		Header:    http.Header{"Accept": {MediaType}, "Content-Type": {MediaType}},
		Authorize: httpclient.BearerToken(bearerToken),
	})
	if err != nil {
		return nil, fmt.Errorf("aggregator client: %w", err)
	}
	return &Client{api: api}, nil
}

type taskIDsPage struct {
	TaskIDs         []string `json:"task_ids"`
	PaginationToken *string  `json:"pagination_token"`
}

// TaskIDs follows pagination_token until the aggregator stops returning one.
func (c *Client) TaskIDs(ctx context.Context) ([]string, error) {
	var (
		ids   []string
		query url.Values
	)
	for range maxPages {
		var page taskIDsPage
		if err := c.api.Do(ctx, http.MethodGet, "/task_ids", query, nil, &page); err != nil {
			return nil, fmt.Errorf("list task ids: %w", err)
		}
		ids = append(ids, page.TaskIDs...)
		if page.PaginationToken == nil || *page.PaginationToken == "" {
			return ids, nil
		}
		query = url.Values{"pagination_token": {*page.PaginationToken}}
	}
	return nil, fmt.Errorf("list task ids: more than %d pages", maxPages)
}

// DeleteTask removes taskID from the aggregator.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if taskID == "" {
		return errors.New("task id is required")
	}
	if err := c.api.Do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(taskID), nil, nil, nil); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return nil
}

// Factory builds aggregator clients sharing one http.Client.
type Factory struct {
	HTTP *http.Client
}

var _ core.AggregatorClientFactory = (*Factory)(nil)

// NewFactory returns a Factory whose requests time out after timeout (30s when zero).
func NewFactory(timeout time.Duration) *Factory {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Factory{HTTP: &http.Client{Timeout: timeout}}
}

// ForAggregator implements core.AggregatorClientFactory.
func (f *Factory) ForAggregator(agg *model.Aggregator, bearerToken string) (core.AggregatorAPI, error) {
	if agg == nil {
		return nil, errors.New("aggregator is required")
	}
	c, err := NewClient(agg.APIURL, bearerToken, f.HTTP)
	if err != nil {
		return nil, fmt.Errorf("aggregator %s: %w", agg.ID, err)
	}
	return c, nil
}
