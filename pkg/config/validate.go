package config

import (
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
)

// Validate checks the configuration for fatal problems. It is called
// once at startup; the first failing rule is returned as a ConfigError
// naming the offending environment variable.
func Validate(cfg *Config) error {
	if cfg.EnabledProviderCount() == 0 {
		return &providers.ConfigError{
			Field:   "OPENAI_ENABLED",
			Message: "at least one provider must be enabled",
		}
	}

	if cfg.PollInterval <= 0 {
		return &providers.ConfigError{
			Field:   "EXPORTER_POLL_INTERVAL",
			Message: "must be positive",
		}
	}
	if cfg.FetchTimeout <= 0 {
		return &providers.ConfigError{
			Field:   "EXPORTER_FETCH_TIMEOUT",
			Message: "must be positive",
		}
	}
	if cfg.FetchTimeout > cfg.PollInterval {
		return &providers.ConfigError{
			Field:   "EXPORTER_FETCH_TIMEOUT",
			Message: "must not exceed EXPORTER_POLL_INTERVAL",
		}
	}

	if cfg.OpenAI.Enabled && cfg.OpenAI.APIKey == "" {
		return &providers.ConfigError{
			Provider: "openai",
			Field:    "OPENAI_API_KEY",
			Message:  "required when the OpenAI provider is enabled",
		}
	}
	if cfg.Anthropic.Enabled && cfg.Anthropic.APIKey == "" {
		return &providers.ConfigError{
			Provider: "anthropic",
			Field:    "ANTHROPIC_API_KEY",
			Message:  "required when the Anthropic provider is enabled",
		}
	}

	if cfg.Bedrock.Enabled {
		if cfg.Bedrock.Region == "" {
			return &providers.ConfigError{
				Provider: "bedrock",
				Field:    "AWS_REGION",
				Message:  "required when the Bedrock provider is enabled",
			}
		}
		if cfg.Bedrock.AssumeRoleEnabled && cfg.Bedrock.RoleARN == "" {
			return &providers.ConfigError{
				Provider: "bedrock",
				Field:    "BEDROCK_ROLE_ARN",
				Message:  "required when role assumption is enabled",
			}
		}
	}

	return nil
}
