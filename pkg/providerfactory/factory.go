// Package providerfactory assembles the configured provider set at
// startup.
package providerfactory

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/config"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/credentials"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers/anthropic"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers/bedrock"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers/openai"
)

// Build creates one provider per enabled configuration section. The
// returned slice order is stable (openai, anthropic, bedrock) so metric
// registration and logs are deterministic. A duplicate provider name is
// a ConfigError.
func Build(ctx context.Context, cfg *config.Config) ([]providers.Provider, error) {
	var built []providers.Provider

	if cfg.OpenAI.Enabled {
		client, err := openai.NewClient(providers.ClientConfig{
			Name:    "openai",
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  cfg.OpenAI.APIKey,
			Timeout: cfg.FetchTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create openai provider: %w", err)
		}
		built = append(built, client)
	}

	if cfg.Anthropic.Enabled {
		client, err := anthropic.NewClient(providers.ClientConfig{
			Name:    "anthropic",
			Model:   cfg.Anthropic.Model,
			BaseURL: cfg.Anthropic.BaseURL,
			APIKey:  cfg.Anthropic.APIKey,
			Timeout: cfg.FetchTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic provider: %w", err)
		}
		built = append(built, client)
	}

	if cfg.Bedrock.Enabled {
		client, err := buildBedrock(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create bedrock provider: %w", err)
		}
		built = append(built, client)
	}

	seen := make(map[string]struct{}, len(built))
	for _, p := range built {
		name := p.Identity().Provider
		if _, dup := seen[name]; dup {
			return nil, &providers.ConfigError{
				Provider: name,
				Field:    "provider_name",
				Message:  "two providers must not share a provider name",
			}
		}
		seen[name] = struct{}{}
	}

	slog.Info("provider set assembled", "count", len(built))

	return built, nil
}

// buildBedrock wires the AWS credential path: the ambient default chain,
// or the role-assumption provisioner when configured.
func buildBedrock(ctx context.Context, cfg *config.Config) (providers.Provider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Bedrock.Region),
	)
	if err != nil {
		return nil, &providers.ConfigError{
			Provider: "bedrock",
			Field:    "AWS_REGION",
			Message:  fmt.Sprintf("failed to load AWS configuration: %v", err),
		}
	}

	var stsClient *sts.Client
	if cfg.Bedrock.AssumeRoleEnabled {
		provisioner, err := credentials.NewProvisioner(
			sts.NewFromConfig(awsCfg),
			credentials.Config{
				RoleARN:     cfg.Bedrock.RoleARN,
				SessionName: cfg.Bedrock.SessionName,
			},
		)
		if err != nil {
			return nil, err
		}
		stsClient = sts.NewFromConfig(awsCfg, func(o *sts.Options) {
			o.Credentials = provisioner
		})
	} else {
		stsClient = sts.NewFromConfig(awsCfg)
	}

	return bedrock.NewClient(bedrock.Config{
		Name:   "bedrock",
		Model:  cfg.Bedrock.Model,
		Region: cfg.Bedrock.Region,
	}, stsClient)
}

// CloseAll closes every provider, logging failures instead of stopping.
func CloseAll(built []providers.Provider) {
	for _, p := range built {
		if err := p.Close(); err != nil {
			slog.Warn("failed to close provider",
				"provider", p.Identity().Provider,
				"error", err,
			)
		}
	}
}
