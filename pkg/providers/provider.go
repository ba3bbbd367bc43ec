package providers

import "context"

// Provider is the core interface every billing/usage monitor must implement.
// One implementation exists per upstream provider (OpenAI, Anthropic, AWS
// Bedrock); the set of providers is selected once at startup from
// configuration.
//
// FetchUsage performs the provider's network calls and returns a fresh,
// normalized UsageRecord. Implementations must respect context cancellation
// and must not write to any shared state; the polling loop owns the record
// until it is merged into the metrics registry.
//
// Fetch failures are returned as one of the typed errors in this package
// (NetworkError, AuthError, DecodeError, ConfigError) so callers can
// classify them at the provider boundary.
type Provider interface {
	// FetchUsage fetches and normalizes the provider's current usage data.
	FetchUsage(ctx context.Context) (*UsageRecord, error)

	// Identity returns the stable (provider, model) label pair the usage
	// is published under.
	Identity() Identity

	// Close releases the provider's resources (idle HTTP connections).
	Close() error
}
