package providers

import "time"

// UsageRecord is the normalized usage/cost snapshot for one provider+model
// at one poll tick. A record is created fresh by each fetch and never
// mutated afterwards.
type UsageRecord struct {
	// CostUSD is the accrued spend reported directly by the provider.
	// Zero when the provider does not report a monetary figure; in that
	// case the cost is derived from token counts and the pricing table.
	CostUSD float64

	// PromptTokens is the number of prompt (input) tokens consumed.
	// Zero when the provider's billing API does not report token usage.
	PromptTokens uint64

	// CompletionTokens is the number of completion (output) tokens consumed.
	CompletionTokens uint64

	// RequestCount is the number of API requests observed.
	RequestCount uint64

	// RemainingBalance is the remaining prepaid/limit balance in USD.
	// Nil means "not applicable" (pay-as-you-go or free tier), which is
	// distinct from an exhausted balance of zero.
	RemainingBalance *float64
}

// Identity is the stable label pair under which a provider's usage is
// published. Two different logical providers must never share a Provider
// name.
type Identity struct {
	// Provider is the provider name (e.g., "openai", "bedrock").
	Provider string

	// Model is the model name the usage is attributed to (e.g., "gpt-4").
	Model string
}

// ClientConfig contains the configuration for an HTTP-based billing client.
type ClientConfig struct {
	// Name is the provider name used for metric labels and error messages.
	Name string

	// Model is the model name the published usage is attributed to.
	Model string

	// BaseURL is the provider API base URL (no trailing slash).
	BaseURL string

	// APIKey is the long-lived API key for direct providers.
	APIKey string

	// Timeout is the per-request timeout. Fetches are never retried within
	// a tick; the next tick is the retry opportunity.
	Timeout time.Duration

	// Connection pool settings.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}
