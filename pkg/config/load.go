package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
)

// Load resolves the configuration from the environment. A .env file in
// the working directory is read first when present; real environment
// variables always win over .env entries.
//
// The loading sequence is:
//  1. Read .env (best effort)
//  2. Read named environment variables
//  3. Apply default values
//  4. Validate the final configuration
func Load() (*Config, error) {
	// godotenv does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddress: os.Getenv("EXPORTER_LISTEN_ADDRESS"),
		PricingFile:   os.Getenv("EXPORTER_PRICING_FILE"),
		LogLevel:      os.Getenv("EXPORTER_LOG_LEVEL"),

		OpenAI: DirectProviderConfig{
			Enabled: envBool("OPENAI_ENABLED", true),
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   os.Getenv("OPENAI_MODEL"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Anthropic: DirectProviderConfig{
			Enabled: envBool("ANTHROPIC_ENABLED", true),
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			Model:   os.Getenv("ANTHROPIC_MODEL"),
			BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		},
		Bedrock: BedrockConfig{
			Enabled:           envBool("BEDROCK_ENABLED", false),
			Region:            os.Getenv("AWS_REGION"),
			Model:             os.Getenv("BEDROCK_MODEL"),
			AssumeRoleEnabled: envBool("BEDROCK_ASSUME_ROLE_ENABLED", false),
			RoleARN:           os.Getenv("BEDROCK_ROLE_ARN"),
			SessionName:       os.Getenv("BEDROCK_SESSION_NAME"),
		},
	}

	var err error
	if cfg.PollInterval, err = envDuration("EXPORTER_POLL_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = envDuration("EXPORTER_FETCH_TIMEOUT"); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envBool reads a boolean variable, returning the fallback when the
// variable is unset or unparsable.
func envBool(name string, fallback bool) bool {
	val := os.Getenv(name)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

// envDuration reads a duration variable. An unset variable yields zero
// (the default applies later); a set but unparsable value is a
// configuration error rather than a silent fallback.
func envDuration(name string) (time.Duration, error) {
	val := os.Getenv(name)
	if val == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, &providers.ConfigError{
			Field:   name,
			Message: "must be a duration such as 30s or 5m",
		}
	}
	return d, nil
}
