package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
)

// DefaultBaseURL is the OpenAI API base URL.
const DefaultBaseURL = "https://api.openai.com"

// Client polls OpenAI's billing endpoints.
// It implements the providers.Provider interface.
type Client struct {
	*providers.HTTPClient
}

// usageResponse is the shape of GET /v1/usage.
// The endpoint reports accrued spend in cents; per-request token breakdowns
// are not available from the billing API.
type usageResponse struct {
	TotalUsage float64 `json:"total_usage"`
}

// subscriptionResponse is the shape of GET /v1/dashboard/billing/subscription.
type subscriptionResponse struct {
	HardLimitUSD     float64 `json:"hard_limit_usd"`
	HasPaymentMethod bool    `json:"has_payment_method"`
}

// NewClient creates a new OpenAI billing client.
func NewClient(config providers.ClientConfig) (*Client, error) {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for OpenAI",
		}
	}

	c := &Client{HTTPClient: providers.NewHTTPClient(config)}

	slog.Info("OpenAI billing client initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return c, nil
}

// FetchUsage combines the usage and subscription endpoints into one
// normalized record.
//
// The usage endpoint reports accrued spend in cents. The remaining balance
// is the configured hard limit minus spend, and only exists for accounts
// with a payment method on file; pay-as-you-go and free-tier accounts have
// no fixed limit, so RemainingBalance stays nil rather than zero.
func (c *Client) FetchUsage(ctx context.Context) (*providers.UsageRecord, error) {
	cfg := c.Config()
	headers := map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", cfg.APIKey),
	}

	var usage usageResponse
	if err := c.GetJSON(ctx, cfg.BaseURL+"/v1/usage", headers, &usage); err != nil {
		return nil, err
	}

	var sub subscriptionResponse
	if err := c.GetJSON(ctx, cfg.BaseURL+"/v1/dashboard/billing/subscription", headers, &sub); err != nil {
		return nil, err
	}

	currentSpend := usage.TotalUsage / 100.0 // cents to dollars

	record := &providers.UsageRecord{
		CostUSD: currentSpend,
	}
	if sub.HasPaymentMethod {
		remaining := sub.HardLimitUSD - currentSpend
		record.RemainingBalance = &remaining
	}

	slog.Debug("fetched OpenAI usage",
		"provider", cfg.Name,
		"cost_usd", record.CostUSD,
		"has_payment_method", sub.HasPaymentMethod,
	)

	return record, nil
}
