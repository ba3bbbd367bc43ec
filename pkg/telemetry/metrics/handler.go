package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the HTTP handler for the metrics exposition endpoint.
//
// It serves the current registry snapshot in the Prometheus text format.
// The endpoint succeeds even before the first completed poll (series are
// simply absent) and returns a server error only on an internal encoding
// failure, never because a provider is currently failing.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
