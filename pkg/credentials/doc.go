// Package credentials manages the short-lived credential lease for the
// cloud-hosted provider.
//
// The Provisioner exchanges a configured role identifier for temporary
// credentials via STS AssumeRole and caches the resulting lease until it
// expires. Expiry is checked lazily on each use rather than by a background
// timer, which keeps the concurrency model down to the two long-lived
// tasks the process already runs (poller and HTTP listener).
//
// When role assumption is disabled by configuration the provisioner is not
// constructed at all; the ambient default credential chain is used
// unmodified.
package credentials
