package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxErrorBodyBytes bounds how much of an error response is kept for
// error messages.
const maxErrorBodyBytes = 4 << 10

// HTTPClient is the base implementation for HTTP-based billing clients.
// It provides connection pooling, per-request timeouts, and uniform mapping
// of transport and decode failures onto the typed errors in this package.
//
// Concrete provider implementations (OpenAI, Anthropic) embed this struct
// and build their FetchUsage on top of GetJSON. Requests are deliberately
// not retried: a failed fetch is skipped for the tick and the next tick is
// an independent retry opportunity.
type HTTPClient struct {
	config ClientConfig
	client *http.Client
}

// NewHTTPClient creates a new base HTTP client with connection pooling.
func NewHTTPClient(config ClientConfig) *HTTPClient {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 2
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPClient{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}
}

// Config returns the client's configuration.
func (c *HTTPClient) Config() ClientConfig {
	return c.config
}

// Identity returns the (provider, model) label pair for this client.
func (c *HTTPClient) Identity() Identity {
	return Identity{Provider: c.config.Name, Model: c.config.Model}
}

// GetJSON performs a GET request and decodes the JSON response into out.
//
// Error mapping:
//   - transport failure or timeout: *NetworkError
//   - HTTP 401/403: *AuthError
//   - any other non-2xx status: *NetworkError with the status code
//   - undecodable body: *DecodeError
func (c *HTTPClient) GetJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("sending billing request",
		"provider", c.config.Name,
		"url", url,
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{
			Provider: c.config.Name,
			Message:  err.Error(),
			Cause:    err,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &AuthError{
			Provider: c.config.Name,
			Message:  string(body),
		}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &NetworkError{
			Provider:   c.config.Name,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{
			Provider: c.config.Name,
			Message:  "failed to read response body",
			Cause:    err,
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{
			Provider:    c.config.Name,
			RawResponse: string(body),
			Cause:       err,
		}
	}

	return nil
}

// Close closes idle HTTP connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
