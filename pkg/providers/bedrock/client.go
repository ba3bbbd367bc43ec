package bedrock

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
)

// CallerIdentityAPI is the subset of the STS client used to validate the
// credential path each tick.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Config contains the Bedrock client configuration.
type Config struct {
	// Name is the provider name used for metric labels.
	Name string

	// Model is the model name the published usage is attributed to.
	Model string

	// Region is the AWS region the client operates in.
	Region string
}

// Client is the AWS Bedrock usage monitor.
// It implements the providers.Provider interface.
//
// AWS exposes no billing or usage API for Bedrock, so each fetch publishes
// a zeroed placeholder record. The fetch still exercises the full
// credential path (role-assumption lease included) by calling STS
// GetCallerIdentity, so credential problems surface per tick like any
// other provider failure instead of silently going stale.
type Client struct {
	config Config
	sts    CallerIdentityAPI
	logger *slog.Logger
}

// NewClient creates a new Bedrock monitor. The STS client carries the
// credential source: either the role-assumption provisioner or the ambient
// default chain when role assumption is disabled.
func NewClient(config Config, stsClient CallerIdentityAPI) (*Client, error) {
	if config.Name == "" {
		config.Name = "bedrock"
	}
	if stsClient == nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "sts_client",
			Message:  "an STS client is required",
		}
	}

	c := &Client{
		config: config,
		sts:    stsClient,
		logger: slog.Default().With("component", "providers.bedrock"),
	}

	slog.Info("Bedrock monitor initialized",
		"provider", config.Name,
		"region", config.Region,
	)

	return c, nil
}

// Identity returns the (provider, model) label pair for this client.
func (c *Client) Identity() providers.Identity {
	return providers.Identity{Provider: c.config.Name, Model: c.config.Model}
}

// FetchUsage validates the credential path and returns a zeroed placeholder
// record. A failed credential exchange or a rejected identity skips this
// provider for the tick; previously published values stay untouched.
func (c *Client) FetchUsage(ctx context.Context) (*providers.UsageRecord, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, c.classify(err)
	}

	if out.Arn != nil {
		c.logger.Debug("credential check succeeded", "caller_arn", *out.Arn)
	}

	return &providers.UsageRecord{}, nil
}

// classify maps SDK failures onto the provider error taxonomy.
func (c *Client) classify(err error) error {
	// A failed lease exchange already carries its own classification.
	var cfgErr *providers.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &providers.AuthError{
			Provider: c.config.Name,
			Message:  apiErr.ErrorCode() + ": " + apiErr.ErrorMessage(),
		}
	}

	return &providers.NetworkError{
		Provider: c.config.Name,
		Message:  err.Error(),
		Cause:    err,
	}
}

// Close implements providers.Provider. The SDK client holds no resources
// the exporter needs to release.
func (c *Client) Close() error {
	return nil
}
