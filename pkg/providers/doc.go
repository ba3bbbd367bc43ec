// Package providers defines the abstraction for polling usage and billing
// data from heterogeneous LLM providers.
//
// # Overview
//
// Each upstream provider exposes a different auth scheme, response shape,
// and pricing model. This package normalizes them behind a single
// capability interface:
//
//  1. Provider interface - FetchUsage returns a normalized UsageRecord
//  2. HTTPClient - shared HTTP base with pooling, timeouts, and typed errors
//  3. Provider adapters - one subpackage per provider (openai, anthropic, bedrock)
//
// # Error taxonomy
//
// Fetch failures are one of four typed errors:
//
//   - NetworkError: transport failure, timeout, or unexpected status
//   - AuthError: credential or token rejected (401/403)
//   - DecodeError: response shape mismatch
//   - ConfigError: missing/invalid configuration or failed credential exchange
//
// The polling loop catches all of these at the provider boundary; a failing
// provider never aborts the loop or affects its siblings.
//
// # Basic Usage
//
//	config := providers.ClientConfig{
//	    Name:    "openai",
//	    Model:   "gpt-4",
//	    BaseURL: "https://api.openai.com",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    Timeout: 30 * time.Second,
//	}
//
//	monitor, err := openai.NewClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer monitor.Close()
//
//	record, err := monitor.FetchUsage(ctx)
package providers
