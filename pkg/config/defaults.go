package config

import "time"

// Default values for configuration fields.
const (
	DefaultListenAddress = ":8000"
	DefaultPollInterval  = 5 * time.Minute
	DefaultFetchTimeout  = 30 * time.Second
	DefaultLogLevel      = "info"

	DefaultOpenAIBaseURL    = "https://api.openai.com"
	DefaultOpenAIModel      = "gpt-4"
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicModel   = "claude-3-opus"
	DefaultBedrockModel     = "anthropic.claude-3-sonnet"

	DefaultBedrockSessionName = "llm-cost-exporter"
)

// ApplyDefaults fills in default values for any fields the environment
// left unset. It never overrides an explicitly configured value.
func ApplyDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = DefaultOpenAIModel
	}

	if cfg.Anthropic.BaseURL == "" {
		cfg.Anthropic.BaseURL = DefaultAnthropicBaseURL
	}
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = DefaultAnthropicModel
	}

	if cfg.Bedrock.Model == "" {
		cfg.Bedrock.Model = DefaultBedrockModel
	}
	if cfg.Bedrock.SessionName == "" {
		cfg.Bedrock.SessionName = DefaultBedrockSessionName
	}
}
