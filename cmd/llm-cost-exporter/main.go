// llm-cost-exporter polls usage and billing data from LLM providers and
// republishes it as a Prometheus metrics endpoint.
//
// It polls each configured provider on a fixed interval, derives cost for
// providers that only report tokens, and serves the aggregated snapshot
// on /metrics:
//   - OpenAI billing API (direct cost and remaining balance)
//   - Anthropic usage report (token-level usage, priced locally)
//   - AWS Bedrock (credential-validated via STS role assumption)
//
// Usage:
//
//	# Start with configuration from the environment (or a .env file)
//	llm-cost-exporter run
//
//	# Override the listen address
//	llm-cost-exporter run --listen 0.0.0.0:9100
//
//	# Show version information
//	llm-cost-exporter version
package main

func main() {
	Execute()
}
