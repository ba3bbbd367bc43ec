package metrics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
)

// Namespace prefixes every metric the exporter publishes.
const Namespace = "llm"

// Token kind label values for the tokens gauge.
const (
	TokenKindPrompt     = "prompt"
	TokenKindCompletion = "completion"
)

// Registry holds the exporter's metric series and mediates every write and
// scrape. Gauges are last-write-wins snapshots of the most recent successful
// poll; a provider's failed poll leaves its previously published values
// untouched. The one exception is the total-cost counter, which only ever
// accumulates.
//
// The set of (provider, model) label pairs is fixed at construction from the
// configured provider list. Updates for any other identity are rejected, so
// malformed or malicious upstream data can never grow the series set.
//
// Registry implements prometheus.Gatherer: updates take the write lock and
// scrapes take the read lock, so a scrape never observes a partially applied
// per-provider batch.
type Registry struct {
	mu  sync.RWMutex
	reg *prometheus.Registry

	cost             *prometheus.GaugeVec
	tokens           *prometheus.GaugeVec
	requests         *prometheus.GaugeVec
	remainingBalance *prometheus.GaugeVec
	totalCost        prometheus.Counter

	lastPollSuccess *prometheus.GaugeVec
	pollErrors      *prometheus.CounterVec

	identities map[providers.Identity]struct{}
	byProvider map[string]struct{}
}

var _ prometheus.Gatherer = (*Registry)(nil)

// New creates the metric descriptors and registers them with the given
// Prometheus registry, once per process run. Registering the same
// descriptor set twice on one registry is a configuration error, as is a
// provider-name collision in the identity list.
func New(reg *prometheus.Registry, identities []providers.Identity) (*Registry, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Registry{
		reg: reg,

		cost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "cost_usd",
				Help:      "Cost of LLM API usage in USD at the last poll",
			},
			[]string{"provider", "model"},
		),
		tokens: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "tokens",
				Help:      "Tokens used by LLM API at the last poll",
			},
			[]string{"provider", "model", "type"},
		),
		requests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "requests",
				Help:      "Number of LLM API requests at the last poll",
			},
			[]string{"provider", "model"},
		),
		remainingBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "remaining_balance_usd",
				Help:      "Remaining budget balance in USD (absent when the account has no fixed limit)",
			},
			[]string{"provider", "model"},
		),
		totalCost: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cost_usd_total",
				Help:      "Accumulated cost across all providers and polls",
			},
		),
		lastPollSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_poll_success",
				Help:      "Whether the provider's most recent poll succeeded (1) or failed (0)",
			},
			[]string{"provider"},
		),
		pollErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "poll_errors_total",
				Help:      "Total failed polls by provider and error class",
			},
			[]string{"provider", "reason"},
		),

		identities: make(map[providers.Identity]struct{}, len(identities)),
		byProvider: make(map[string]struct{}, len(identities)),
	}

	for _, id := range identities {
		if _, dup := r.byProvider[id.Provider]; dup {
			return nil, &providers.ConfigError{
				Provider: id.Provider,
				Field:    "provider_name",
				Message:  "two providers must not share a provider name",
			}
		}
		r.identities[id] = struct{}{}
		r.byProvider[id.Provider] = struct{}{}
	}

	collectors := []prometheus.Collector{
		r.cost, r.tokens, r.requests, r.remainingBalance,
		r.totalCost, r.lastPollSuccess, r.pollErrors,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			are := prometheus.AlreadyRegisteredError{}
			if errors.As(err, &are) {
				return nil, &providers.ConfigError{
					Field:   "metrics",
					Message: fmt.Sprintf("metric descriptors already registered: %v", err),
				}
			}
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return r, nil
}

// Update overwrites the per-key gauges for one identity with a fresh
// record and adds its cost to the cross-provider accumulator. The whole
// batch is applied under the write lock so scrapes see it atomically.
//
// Identities outside the startup-configured set are rejected to keep label
// cardinality bounded.
func (r *Registry) Update(id providers.Identity, record *providers.UsageRecord) error {
	if _, ok := r.identities[id]; !ok {
		return fmt.Errorf("unknown provider identity %s/%s: identities are fixed at startup", id.Provider, id.Model)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cost.WithLabelValues(id.Provider, id.Model).Set(record.CostUSD)
	r.tokens.WithLabelValues(id.Provider, id.Model, TokenKindPrompt).Set(float64(record.PromptTokens))
	r.tokens.WithLabelValues(id.Provider, id.Model, TokenKindCompletion).Set(float64(record.CompletionTokens))
	r.requests.WithLabelValues(id.Provider, id.Model).Set(float64(record.RequestCount))

	r.totalCost.Add(record.CostUSD)

	if record.RemainingBalance != nil {
		r.remainingBalance.WithLabelValues(id.Provider, id.Model).Set(*record.RemainingBalance)
	}

	return nil
}

// MarkPollSuccess records the outcome of a provider's most recent poll.
func (r *Registry) MarkPollSuccess(provider string, ok bool) {
	if _, known := r.byProvider[provider]; !known {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	value := 0.0
	if ok {
		value = 1.0
	}
	r.lastPollSuccess.WithLabelValues(provider).Set(value)
}

// RecordPollError counts a failed poll under its error class.
func (r *Registry) RecordPollError(provider, reason string) {
	if _, known := r.byProvider[provider]; !known {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pollErrors.WithLabelValues(provider, reason).Inc()
}

// Gather implements prometheus.Gatherer. It takes the read lock so a
// scrape never interleaves with a partially applied update batch.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.reg.Gather()
}

// Snapshot returns the current values of all registered series. It is
// Gather under a name that matches what it is used for outside scraping.
func (r *Registry) Snapshot() ([]*dto.MetricFamily, error) {
	return r.Gather()
}
