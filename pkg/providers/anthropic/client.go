package anthropic

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
)

const (
	// DefaultBaseURL is the Anthropic API base URL.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultAnthropicVersion is the API version header value.
	DefaultAnthropicVersion = "2023-06-01"
)

// Client polls Anthropic's organization usage report.
// It implements the providers.Provider interface.
//
// Unlike OpenAI's billing API, the usage report carries token-level
// breakdowns but no monetary figure; the cost is derived downstream from
// the pricing table.
type Client struct {
	*providers.HTTPClient
}

// usageReportResponse is the shape of GET /v1/organizations/usage_report.
type usageReportResponse struct {
	InputTokens  uint64 `json:"input_tokens"`
	OutputTokens uint64 `json:"output_tokens"`
	RequestCount uint64 `json:"request_count"`
}

// creditsResponse is the shape of GET /v1/organizations/credits.
type creditsResponse struct {
	// AmountUSD is the remaining prepaid credit balance.
	AmountUSD float64 `json:"amount_usd"`

	// Prepaid reports whether the organization is on prepaid credits.
	// Invoiced accounts have no fixed balance to exhaust.
	Prepaid bool `json:"prepaid"`
}

// NewClient creates a new Anthropic usage client.
func NewClient(config providers.ClientConfig) (*Client, error) {
	if config.Name == "" {
		config.Name = "anthropic"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}

	c := &Client{HTTPClient: providers.NewHTTPClient(config)}

	slog.Info("Anthropic usage client initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return c, nil
}

// FetchUsage combines the usage report and the credits endpoint into one
// normalized record. Token counts come from the report as-is; fields the
// API does not supply are never inferred. The credit balance is published
// only for prepaid organizations.
func (c *Client) FetchUsage(ctx context.Context) (*providers.UsageRecord, error) {
	cfg := c.Config()
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": DefaultAnthropicVersion,
	}

	reportURL := cfg.BaseURL + "/v1/organizations/usage_report?model=" + url.QueryEscape(cfg.Model)
	var report usageReportResponse
	if err := c.GetJSON(ctx, reportURL, headers, &report); err != nil {
		return nil, err
	}

	var credits creditsResponse
	if err := c.GetJSON(ctx, cfg.BaseURL+"/v1/organizations/credits", headers, &credits); err != nil {
		return nil, err
	}

	record := &providers.UsageRecord{
		PromptTokens:     report.InputTokens,
		CompletionTokens: report.OutputTokens,
		RequestCount:     report.RequestCount,
	}
	if credits.Prepaid {
		remaining := credits.AmountUSD
		record.RemainingBalance = &remaining
	}

	slog.Debug("fetched Anthropic usage",
		"provider", cfg.Name,
		"model", cfg.Model,
		"prompt_tokens", record.PromptTokens,
		"completion_tokens", record.CompletionTokens,
		"requests", record.RequestCount,
	)

	return record, nil
}
