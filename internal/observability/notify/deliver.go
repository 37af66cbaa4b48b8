package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBodyBytes = 4 * 1024

// PostParams describes one JSON webhook delivery with linear retries.
type PostParams struct {
	Client     *http.Client
	URL        string
	Body       []byte
	RetryLimit int
	// Service names the destination in error messages.
	Service string
}

// PostJSON posts Body to URL, retrying non-2xx responses and transport errors
// up to RetryLimit times with a 200ms linear backoff.
func PostJSON(ctx context.Context, p PostParams) error {
	attempts := max(p.RetryLimit, 0) + 1
	var lastErr error
	for attempt := range attempts {
		err := postOnce(ctx, p)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * 200 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func postOnce(ctx context.Context, p PostParams) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(p.Body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", p.Service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", p.Service, err)
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	_, _ = io.Copy(io.Discard, resp.Body)
	closeErr := resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", p.Service, resp.Status, strings.TrimSpace(string(body)))
	}
	if readErr != nil || closeErr != nil {
		return errors.Join(readErr, closeErr)
	}
	return nil
}

// FallbackString returns fallback when value is blank.
func FallbackString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
