package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient wraps http.Client for the ledger API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *HTTPClient) ledgerURL(user, suffix string) string {
	return c.baseURL + "/ledgers/" + url.PathEscape(user) + suffix
}

// do sends body as JSON (when not nil) and decodes a JSON response into out
// (when not nil). It returns the status code.
func (c *HTTPClient) do(ctx context.Context, method, target string, body, out any) (int, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *HTTPClient) health(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, c.baseURL+"/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	return nil
}

func (c *HTTPClient) reset(ctx context.Context, user string) (ledgerDoc, error) {
	var doc ledgerDoc
	status, err := c.do(ctx, http.MethodPost, c.ledgerURL(user, "/reset"), map[string]bool{"confirm": true}, &doc)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("reset %s: status %d", user, status)
	}
	return doc, err
}

// propose reports whether the bet was accepted; a 422 refusal is not an error.
func (c *HTTPClient) propose(ctx context.Context, user string, odd float64) (bool, error) {
	status, err := c.do(ctx, http.MethodPost, c.ledgerURL(user, "/propose"), map[string]float64{"odd": odd}, nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusCreated:
		return true, nil
	case http.StatusUnprocessableEntity:
		return false, nil
	}
	return false, fmt.Errorf("propose %s at %v: status %d", user, odd, status)
}

func (c *HTTPClient) resolve(ctx context.Context, user string, win bool) (resolveDoc, error) {
	var doc resolveDoc
	status, err := c.do(ctx, http.MethodPost, c.ledgerURL(user, "/resolve"), map[string]bool{"win": win}, &doc)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("resolve %s: status %d", user, status)
	}
	return doc, err
}

func (c *HTTPClient) export(ctx context.Context, user string) (ledgerDoc, error) {
	var doc ledgerDoc
	status, err := c.do(ctx, http.MethodGet, c.ledgerURL(user, "/export"), nil, &doc)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("export %s: status %d", user, status)
	}
	return doc, err
}
