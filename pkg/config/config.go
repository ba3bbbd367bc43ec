package config

import "time"

// Config is the complete exporter configuration, resolved from the
// environment at startup and immutable afterwards.
type Config struct {
	// ListenAddress is the host:port the HTTP server binds.
	ListenAddress string

	// PollInterval is the fixed period between provider polls.
	PollInterval time.Duration

	// FetchTimeout bounds each upstream API call within a tick.
	FetchTimeout time.Duration

	// PricingFile optionally points at a YAML rate table that overrides
	// the embedded per-model rates.
	PricingFile string

	// LogLevel is the slog level name: debug, info, warn, error.
	LogLevel string

	OpenAI    DirectProviderConfig
	Anthropic DirectProviderConfig
	Bedrock   BedrockConfig
}

// DirectProviderConfig configures a direct-API provider that
// authenticates with a static API key.
type DirectProviderConfig struct {
	// Enabled controls whether the provider is polled.
	Enabled bool

	// APIKey authenticates requests. Required when Enabled.
	APIKey string

	// Model is the model label published on this provider's series.
	Model string

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string
}

// BedrockConfig configures the AWS Bedrock cloud provider.
type BedrockConfig struct {
	// Enabled controls whether the provider is polled.
	Enabled bool

	// Region is the AWS region the STS and Bedrock clients target.
	Region string

	// Model is the model label published on this provider's series.
	Model string

	// AssumeRoleEnabled routes credential resolution through the STS
	// role-assumption provisioner. When false, ambient default
	// credentials are used directly.
	AssumeRoleEnabled bool

	// RoleARN identifies the role to assume. Required when
	// AssumeRoleEnabled.
	RoleARN string

	// SessionName is the base name for assumed-role sessions.
	SessionName string
}

// EnabledProviderCount returns how many providers the configuration
// turns on.
func (c *Config) EnabledProviderCount() int {
	n := 0
	if c.OpenAI.Enabled {
		n++
	}
	if c.Anthropic.Enabled {
		n++
	}
	if c.Bedrock.Enabled {
		n++
	}
	return n
}
